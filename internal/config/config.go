package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dingtalk/internal/robot"
)

// Environment variables consulted by the CLI.
const (
	EnvToken  = "DINGTALK_TOKEN"  // provider-prefixed credential string
	EnvConfig = "DINGTALK_CONFIG" // overrides ConfigPath
)

// Config is the profile store: named robots plus the one used by default.
type Config struct {
	Robots  []RobotProfile `json:"robots"`
	Default string         `json:"default,omitempty"`
}

// RobotProfile is a named robot configuration.
type RobotProfile struct {
	Name         string `json:"name" yaml:"name"`
	robot.Record `yaml:",inline"`
}

// ErrNotFound is returned when a named robot does not exist.
var ErrNotFound = errors.New("config: robot not found")

// ConfigPath is the location of the profile store.
var ConfigPath string

// loadConfigFunc is the config loader function, overridable in tests.
var loadConfigFunc = LoadConfig

func init() {
	if p := os.Getenv(EnvConfig); p != "" {
		ConfigPath = p
		return
	}
	homeDir, _ := os.UserHomeDir()
	ConfigPath = filepath.Join(homeDir, ".dingtalk", "config.json")
}

// LoadConfig reads the profile store. A missing file yields an empty store.
func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(ConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", ConfigPath, err)
	}
	return &cfg, nil
}

// SaveConfig writes the profile store. The file holds secrets, so it is
// only readable by the owner.
func SaveConfig(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(ConfigPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(ConfigPath, data, 0o600)
}
