// Package config loads the planner host configuration from YAML with
// environment expansion and .env support.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/dayplan/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Projection ProjectionConfig `yaml:"projection"`
	Rollover   RolloverConfig   `yaml:"rollover"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Events     EventsConfig     `yaml:"events"`
}

// StoreConfig locates the task database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ProjectionConfig tunes the visible-window computation.
type ProjectionConfig struct {
	// DefaultDays is the agenda window size when not given on the CLI.
	DefaultDays int `yaml:"default_days"`
	// BufferDays pads the rule-expansion window.
	BufferDays int `yaml:"buffer_days"`
}

// RolloverConfig tunes how missed occurrences are carried forward.
type RolloverConfig struct {
	// LookbackDays bounds how far back the rollover scan reaches.
	LookbackDays int `yaml:"lookback_days"`
	// Interval is how often the daemon runs a rollover pass, as a Go
	// duration string ("15m", "1h").
	Interval string `yaml:"interval"`
}

// ParsedInterval resolves the rollover interval.
func (r RolloverConfig) ParsedInterval() (time.Duration, error) {
	d, err := time.ParseDuration(r.Interval)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryConfig, "invalid rollover interval").
			WithContext("interval", r.Interval).Build()
	}
	return d, nil
}

// MetricsConfig controls the daemon's Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// EventsConfig controls the optional NATS event publisher.
type EventsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Stream        string `yaml:"stream"`
}

// Load loads configuration from the specified file, expanding
// environment variables in the YAML content. A missing .env file is
// not an error.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).Build()
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "read config file").Build()
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "unmarshal config").Build()
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath()
	}
	if c.Projection.DefaultDays <= 0 {
		c.Projection.DefaultDays = 7
	}
	if c.Projection.BufferDays <= 0 {
		c.Projection.BufferDays = 3
	}
	if c.Rollover.LookbackDays <= 0 {
		c.Rollover.LookbackDays = 60
	}
	if c.Rollover.Interval == "" {
		c.Rollover.Interval = "15m"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9184"
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = "dayplan"
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dayplan.db"
	}
	return home + "/.local/share/dayplan/tasks.db"
}

// loadEnvFiles loads .env then .env.local, never overriding existing
// process environment. Both files are optional.
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", path, err)
		}
	}
}
