// Package perf reads and writes the scalar performance measurements recorded
// for a case: elapsed-time throughput and peak memory.
package perf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the measurement file inside a case or baseline directory.
const FileName = "perf.json"

// Metric names stored in the measurement file.
const (
	MetricThroughput = "throughput"
	MetricMemory     = "memory"
)

// ErrNoMeasurement is returned when a directory holds no measurement file.
var ErrNoMeasurement = errors.New("performance measurements not found")

// Load reads the metric map recorded in dir.
func Load(dir string) (map[string]float64, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoMeasurement, dir)
		}
		return nil, fmt.Errorf("reading measurements: %w", err)
	}

	values := make(map[string]float64)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing measurements: %w", err)
	}
	return values, nil
}

// Save writes a metric map into dir.
func Save(dir string, values map[string]float64) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling measurements: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("writing measurements: %w", err)
	}
	return nil
}
