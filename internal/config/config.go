// Package config loads the winstated daemon configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winstated/internal/ax"
)

// Config is the daemon configuration.
type Config struct {
	// AdmitDelayMS is how long to wait after launch detection before
	// attaching observers to a new application, in milliseconds.
	AdmitDelayMS int `yaml:"admit_delay_ms"`

	// RefreshIntervalSeconds is the period of the registry resync loop.
	// 0 disables periodic refresh.
	RefreshIntervalSeconds int `yaml:"refresh_interval_seconds"`

	// ProcessPolicy selects which process kinds are tracked. Valid values:
	// "regular", "ui_element".
	ProcessPolicy []string `yaml:"process_policy"`

	// Socket overrides the IPC socket path.
	Socket string `yaml:"socket,omitempty"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls daemon logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AdmitDelayMS:           500,
		RefreshIntervalSeconds: 10,
		ProcessPolicy:          []string{"regular", "ui_element"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultConfigPath returns ~/.config/winstated/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winstated", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from an explicit path, merged over
// the defaults. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values without applying them.
func (c *Config) Validate() error {
	if c.AdmitDelayMS < 0 {
		return fmt.Errorf("admit_delay_ms must be >= 0, got %d", c.AdmitDelayMS)
	}
	if c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("refresh_interval_seconds must be >= 0, got %d", c.RefreshIntervalSeconds)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// AdmitDelay returns the admission delay as a duration. Zero maps to a
// negative sentinel so the state core treats it as "no wait" rather than
// "use default".
func (c *Config) AdmitDelay() time.Duration {
	if c.AdmitDelayMS == 0 {
		return -1
	}
	return time.Duration(c.AdmitDelayMS) * time.Millisecond
}

// RefreshInterval returns the resync period; 0 disables the loop.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// Policy translates the configured process policy names into a mask.
func (c *Config) Policy() (ax.ProcessPolicy, error) {
	if len(c.ProcessPolicy) == 0 {
		return ax.PolicyRegular | ax.PolicyUIElement, nil
	}
	var mask ax.ProcessPolicy
	for _, name := range c.ProcessPolicy {
		switch name {
		case "regular":
			mask |= ax.PolicyRegular
		case "ui_element":
			mask |= ax.PolicyUIElement
		default:
			return 0, fmt.Errorf("unknown process policy %q", name)
		}
	}
	return mask, nil
}

// LogLevel parses the configured logging level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch c.Logging.Level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
}
