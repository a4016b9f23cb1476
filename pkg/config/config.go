// Package config provides engine configuration loading.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is absent from the file and environment.
const (
	DefaultPersistenceURL = "file://./data"
	DefaultLogLevel       = "info"
	DefaultMaxSteps       = 1000
	DefaultMaxDefSteps    = 200
)

// Config is the engine configuration shared by the binaries.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// PersistenceURL selects storage: "file://<dir>" or "memory://".
	PersistenceURL string `yaml:"persistence_url"`

	// MaxSteps caps executed steps per run.
	MaxSteps int `yaml:"max_steps"`

	// RunTimeout is the optional wall-clock deadline per run.
	RunTimeout time.Duration `yaml:"-"`

	// MaxDefinitionSteps caps how many steps a definition may declare.
	MaxDefinitionSteps int `yaml:"max_definition_steps"`
}

// Default returns the built-in configuration with environment overrides.
func Default() Config {
	cfg := Config{
		LogLevel:           DefaultLogLevel,
		PersistenceURL:     DefaultPersistenceURL,
		MaxSteps:           DefaultMaxSteps,
		MaxDefinitionSteps: DefaultMaxDefSteps,
	}
	cfg.applyEnv()

	return cfg
}

// Load reads a YAML configuration file, then applies environment
// overrides. Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		LogLevel:           DefaultLogLevel,
		PersistenceURL:     DefaultPersistenceURL,
		MaxSteps:           DefaultMaxSteps,
		MaxDefinitionSteps: DefaultMaxDefSteps,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Durations are written as strings ("30s", "5m").
	var timeouts struct {
		RunTimeout string `yaml:"run_timeout"`
	}

	if err := yaml.Unmarshal(data, &timeouts); err == nil && timeouts.RunTimeout != "" {
		timeout, err := time.ParseDuration(timeouts.RunTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid run_timeout %q: %w", timeouts.RunTimeout, err)
		}

		cfg.RunTimeout = timeout
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if level := os.Getenv("AGENTFORGE_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}

	if url := os.Getenv("AGENTFORGE_PERSISTENCE_URL"); url != "" {
		c.PersistenceURL = url
	}
}
