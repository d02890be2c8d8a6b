// Package config loads tftpctl's client-side defaults: the server port,
// logging, and the protocol engine's timeout/retry knobs (spec.md §9
// documents these as configurable). A Server value is loaded and overlaid
// like the other fields, but cmd/tftpctl always takes the server from its
// positional argument and does not read Config.Server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultServerPort is the well-known TFTP request port (spec.md §3).
const DefaultServerPort = 69

// Config is tftpctl's client configuration, loadable from a YAML file and
// overridable by environment variables and CLI flags, in that order.
type Config struct {
	Server  string        `yaml:"server"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig mirrors the teacher's leveled-logger configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns tftpctl's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:    DefaultServerPort,
		Timeout: 25 * time.Second,
		Retries: 5,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a YAML file. A missing file is not
// an error: it yields the built-in defaults, matching the teacher's
// LoadFromFile behavior.
func LoadFromFile(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnvironmentVariables overlays TFTPCTL_* environment variables onto c.
func (c *Config) ApplyEnvironmentVariables() {
	if v := os.Getenv("TFTPCTL_SERVER"); v != "" {
		c.Server = v
	}
	if v := os.Getenv("TFTPCTL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("TFTPCTL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("TFTPCTL_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retries = n
		}
	}
	if v := os.Getenv("TFTPCTL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
