// Package config loads and validates the luxd configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
)

// Config represents the daemon configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Control   ControlConfig   `yaml:"control"`
	NATS      NATSConfig      `yaml:"nats"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Watcher   WatcherConfig   `yaml:"watcher"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig configures where luxd persists its state.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// ControlConfig configures write arbitration and change logging.
type ControlConfig struct {
	// LockoutWindow is the trailing interval after a local write during
	// which remote writes are rejected.
	LockoutWindow time.Duration `yaml:"lockout_window"`
	// DebounceCooldown is the quiet interval that closes a burst of
	// lighting changes into a single audit entry.
	DebounceCooldown time.Duration `yaml:"debounce_cooldown"`
}

// NATSConfig configures optional publishing of lighting changes.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ArchiveConfig configures the optional queryable audit archive.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WatcherConfig configures the record directory watcher. The watcher is
// on by default; set disabled to turn it off.
type WatcherConfig struct {
	Disabled bool `yaml:"disabled"`
}

// SchedulerConfig configures the schedule executor. The executor is on
// by default; set disabled to turn it off.
type SchedulerConfig struct {
	Disabled bool `yaml:"disabled"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env/.env.local if present; existing env always wins.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", envPath, err)
			}
			break
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, luxerrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, luxerrors.IOFailure("read config", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, luxerrors.ConfigInvalid("yaml parse", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "./data"
	}
	if c.Control.LockoutWindow == 0 {
		c.Control.LockoutWindow = 5 * time.Second
	}
	if c.Control.DebounceCooldown == 0 {
		c.Control.DebounceCooldown = time.Second
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "luxd.lighting"
	}
}

func (c *Config) validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return luxerrors.ConfigInvalid(fmt.Sprintf("http port %d out of range", c.HTTP.Port), nil)
	}
	if c.Control.LockoutWindow < 0 {
		return luxerrors.ConfigInvalid("lockout window must not be negative", nil)
	}
	if c.Control.DebounceCooldown <= 0 {
		return luxerrors.ConfigInvalid("debounce cooldown must be positive", nil)
	}
	return nil
}
