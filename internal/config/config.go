// Package config loads the engine configuration. Priority: environment
// variables > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the engine configuration for one invocation.
type Config struct {
	BaselineRoot    string   `yaml:"baseline_root"`    // Baseline store root directory
	DefaultBaseline string   `yaml:"default_baseline"` // Baseline name when nothing else resolves
	DatabasePath    string   `yaml:"database"`         // Run-history database ("" disables)
	ToleranceRules  []string `yaml:"tolerance_rules"`  // Output tolerance bands, ordered
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	base := ".simbless"
	if err == nil {
		base = filepath.Join(home, ".simbless")
	}
	return Config{
		BaselineRoot:    filepath.Join(base, "baselines"),
		DefaultBaseline: "main",
	}
}

// Load layers the optional config file and environment overrides on top of
// the defaults. environ is the "KEY=VALUE" slice, passed explicitly so tests
// control it.
func Load(environ []string) (Config, error) {
	cfg := Default()

	path := envValue(environ, "SIMBLESS_CONFIG")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".simbless.yaml")
		}
	}

	if path != "" {
		if err := loadFromFile(&cfg, path); err != nil {
			// The config file is optional; only a present-but-broken file fails
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("loading config file: %w", err)
			}
		}
	}

	if v := envValue(environ, "SIMBLESS_BASELINE_ROOT"); v != "" {
		cfg.BaselineRoot = v
	}
	if v := envValue(environ, "SIMBLESS_BASELINE"); v != "" {
		cfg.DefaultBaseline = v
	}
	if v := envValue(environ, "SIMBLESS_DB"); v != "" {
		cfg.DatabasePath = v
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// envValue looks up a variable in an environ slice.
func envValue(environ []string, key string) string {
	prefix := key + "="
	for _, entry := range environ {
		if strings.HasPrefix(entry, prefix) {
			return strings.TrimPrefix(entry, prefix)
		}
	}
	return ""
}
