package config

import (
	"fmt"
	"strings"
)

// AddRobot stores a robot profile, replacing any profile with the same
// name. The first robot added becomes the default.
func AddRobot(p RobotProfile) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("config: robot name is required")
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		return err
	}

	replaced := false
	for i := range cfg.Robots {
		if cfg.Robots[i].Name == p.Name {
			cfg.Robots[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Robots = append(cfg.Robots, p)
	}
	if cfg.Default == "" {
		cfg.Default = p.Name
	}
	return SaveConfig(cfg)
}

// RemoveRobot deletes a robot profile by name. Removing the default robot
// clears the default.
func RemoveRobot(name string) error {
	cfg, err := loadConfigFunc()
	if err != nil {
		return err
	}

	idx := -1
	for i, r := range cfg.Robots {
		if r.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	cfg.Robots = append(cfg.Robots[:idx], cfg.Robots[idx+1:]...)
	if cfg.Default == name {
		cfg.Default = ""
	}
	return SaveConfig(cfg)
}

// ListRobots returns all stored robot profiles in insertion order.
func ListRobots() ([]RobotProfile, error) {
	cfg, err := loadConfigFunc()
	if err != nil {
		return nil, err
	}
	return cfg.Robots, nil
}

// GetRobot looks up a robot profile by name. A missing profile is
// ErrNotFound; a store that cannot be read is reported as is.
func GetRobot(name string) (RobotProfile, error) {
	cfg, err := loadConfigFunc()
	if err != nil {
		return RobotProfile{}, err
	}
	return cfg.robot(name)
}

func (c *Config) robot(name string) (RobotProfile, error) {
	for _, r := range c.Robots {
		if r.Name == name {
			return r, nil
		}
	}
	return RobotProfile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// SetDefault selects the robot used when none is named.
func SetDefault(name string) error {
	cfg, err := loadConfigFunc()
	if err != nil {
		return err
	}
	for _, r := range cfg.Robots {
		if r.Name == name {
			cfg.Default = name
			return SaveConfig(cfg)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// DefaultRobot returns the default robot profile. ok is false when no
// default is set.
func DefaultRobot() (p RobotProfile, ok bool, err error) {
	cfg, err := loadConfigFunc()
	if err != nil || cfg.Default == "" {
		return RobotProfile{}, false, err
	}
	p, err = cfg.robot(cfg.Default)
	return p, err == nil, err
}

// MaskSecret hides all but the last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// Masked returns a copy of p with credentials hidden. A direct URL carries
// its credential in the query, so every query value is masked.
func (p RobotProfile) Masked() RobotProfile {
	p.AccessToken = MaskSecret(p.AccessToken)
	p.SecToken = MaskSecret(p.SecToken)
	p.DirectURL = maskQuery(p.DirectURL)
	return p
}

func maskQuery(rawURL string) string {
	base, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return rawURL
	}
	query, fragment, hasFragment := strings.Cut(query, "#")
	params := strings.Split(query, "&")
	for i, kv := range params {
		if k, v, ok := strings.Cut(kv, "="); ok {
			params[i] = k + "=" + MaskSecret(v)
		}
	}
	out := base + "?" + strings.Join(params, "&")
	if hasFragment {
		out += "#" + fragment
	}
	return out
}
