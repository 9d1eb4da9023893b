// Package config handles configuration loading and validation for margin.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// APIConfig holds connection settings for the CMS comment API.
type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Token   string   `yaml:"token"`
	Timeout Duration `yaml:"timeout"`
}

// SyncConfig tunes the background synchronization loop.
type SyncConfig struct {
	// AutosaveInterval is how often dirty comments are pushed. Zero disables
	// the background loop; saves then happen only on explicit commit.
	AutosaveInterval Duration `yaml:"autosave_interval"`
}

// UserConfig identifies the commenting user. The server is authoritative for
// author attribution; these values only seed locally created entities until
// the first save echoes back.
type UserConfig struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// Config holds the application configuration.
type Config struct {
	API      APIConfig  `yaml:"api"`
	Sync     SyncConfig `yaml:"sync"`
	User     UserConfig `yaml:"user"`
	Document string     `yaml:"document"` // set by caller or flag, overridable per invocation
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout: Duration(30 * time.Second),
		},
		Sync: SyncConfig{
			AutosaveInterval: Duration(5 * time.Second),
		},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, returns defaults. Environment variables MARGIN_API_TOKEN and
// MARGIN_API_URL override the file so tokens can stay out of it.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if v := os.Getenv("MARGIN_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("MARGIN_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
}
