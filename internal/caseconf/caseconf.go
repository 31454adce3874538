// Package caseconf reads the configuration recorded alongside a completed
// case result: the case metadata (compiler, machine, baseline compare name)
// and the resolved runtime configuration map.
package caseconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is the case metadata file inside a result directory.
	ConfigFile = "case_config.yaml"
	// NamelistFile holds the case's resolved runtime configuration.
	NamelistFile = "namelists.yaml"
)

// ErrNoNamelist is returned when a directory has no recorded runtime configuration.
var ErrNoNamelist = errors.New("no namelist recorded")

// Config is the per-case metadata recorded by the run that produced the case.
type Config struct {
	Compiler    string `yaml:"compiler"`
	Machine     string `yaml:"machine"`
	CompareName string `yaml:"compare_name"` // Baseline name the run compared against
}

// Load reads the case metadata from caseDir. A missing file is not an
// error; cases produced by older runs may not record one.
func Load(caseDir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(caseDir, ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading case config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing case config: %w", err)
	}
	return cfg, nil
}

// Namelists reads the runtime configuration map recorded in dir.
// Returns ErrNoNamelist when the file is absent so callers can distinguish
// a missing artifact from an unreadable one.
func Namelists(dir string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, NamelistFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoNamelist, dir)
		}
		return nil, fmt.Errorf("reading namelists: %w", err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing namelists: %w", err)
	}
	return values, nil
}

// WriteNamelists records a runtime configuration map in dir.
func WriteNamelists(dir string, values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshaling namelists: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, NamelistFile), data, 0o644); err != nil {
		return fmt.Errorf("writing namelists: %w", err)
	}
	return nil
}
