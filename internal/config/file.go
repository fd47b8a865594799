package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dingtalk/internal/robot"
)

// DefaultRobotFile is the credential file read when nothing else is
// configured.
const DefaultRobotFile = "~/.dingtalk-token.json"

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return "", fmt.Errorf("config: expand %s: %w", path, err)
		}
	}
	return filepath.Join(home, path[2:]), nil
}

// LoadRobotFile reads a robot credential file. Files ending in .yaml or
// .yml are YAML; anything else is JSON. Both use the same keys.
func LoadRobotFile(path string) (robot.Record, error) {
	full, err := ExpandHome(path)
	if err != nil {
		return robot.Record{}, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return robot.Record{}, err
	}

	switch strings.ToLower(filepath.Ext(full)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return robot.ParseJSON(data)
	}
}

func parseYAML(data []byte) (robot.Record, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return robot.Record{}, fmt.Errorf("%w: %w", robot.ErrConfigFormat, err)
	}
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return robot.Record{}, fmt.Errorf("%w: expected a YAML mapping", robot.ErrConfigFormat)
	}
	var r robot.Record
	if err := node.Content[0].Decode(&r); err != nil {
		return robot.Record{}, fmt.Errorf("%w: %w", robot.ErrConfigFormat, err)
	}
	return r, nil
}

// LoadClient builds a client from a credential file.
func LoadClient(path string, opts ...robot.Option) (*robot.Client, error) {
	r, err := LoadRobotFile(path)
	if err != nil {
		return nil, err
	}
	return robot.FromRecord(r, opts...), nil
}

// ExportYAML writes the profiles as a YAML document. Credentials are masked
// unless reveal is set.
func ExportYAML(w io.Writer, profiles []RobotProfile, reveal bool) error {
	out := make([]RobotProfile, 0, len(profiles))
	for _, p := range profiles {
		if !reveal {
			p = p.Masked()
		}
		out = append(out, p)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"robots": out}); err != nil {
		return err
	}
	return enc.Close()
}

// ErrNoRobot is returned by Resolve when no robot is configured anywhere.
var ErrNoRobot = errors.New("config: no robot configured")

// Source names where a robot should come from. Empty fields are skipped.
type Source struct {
	Robot string // profile name
	Token string // provider-prefixed credential string
	File  string // credential file
	URL   string // direct URL
}

// Resolve picks a robot in order: direct URL, token, file, named profile,
// $DINGTALK_TOKEN, default profile, DefaultRobotFile. It returns the
// client and a short label describing where it came from.
func Resolve(src Source, opts ...robot.Option) (*robot.Client, string, error) {
	switch {
	case src.URL != "":
		return robot.FromURL(src.URL, opts...), "url", nil
	case src.Token != "":
		c, err := robot.FromToken(src.Token, opts...)
		return c, "token", err
	case src.File != "":
		c, err := LoadClient(src.File, opts...)
		return c, src.File, err
	case src.Robot != "":
		p, err := GetRobot(src.Robot)
		if err != nil {
			return nil, "", err
		}
		return robot.FromRecord(p.Record, opts...), p.Name, nil
	}

	if tok := os.Getenv(EnvToken); tok != "" {
		c, err := robot.FromToken(tok, opts...)
		return c, "$" + EnvToken, err
	}
	p, ok, err := DefaultRobot()
	if err != nil {
		return nil, "", err
	}
	if ok {
		return robot.FromRecord(p.Record, opts...), p.Name, nil
	}
	c, err := LoadClient(DefaultRobotFile, opts...)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNoRobot
	}
	return c, DefaultRobotFile, err
}
