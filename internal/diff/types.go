// Package diff implements the three comparison strategies the engine runs
// against a baseline: configuration, structured output and performance.
// All three produce the same tagged Result type.
package diff

import "errors"

// ErrCompare wraps failures to read or parse either side of a comparison.
// A missing baseline is not an ErrCompare; it is reported as KindNoBaseline
// because first-time blessing is a valid case.
var ErrCompare = errors.New("comparison failed")

// Kind tags a comparison result.
type Kind string

const (
	KindNoDifference          Kind = "no_difference"
	KindNoBaseline            Kind = "no_baseline"
	KindConfigDifference      Kind = "config_difference"
	KindOutputDifference      Kind = "output_difference"
	KindPerformanceDifference Kind = "performance_difference"
)

// ChangeType classifies a configuration key change.
type ChangeType string

const (
	Added   ChangeType = "added"   // Key in candidate but not baseline
	Removed ChangeType = "removed" // Key in baseline but not candidate
	Changed ChangeType = "changed" // Key in both with different values
)

// ConfigEntry is one differing configuration key.
type ConfigEntry struct {
	Key  string     `json:"key"`
	Type ChangeType `json:"type"`
	Old  string     `json:"old,omitempty"` // Baseline value
	New  string     `json:"new,omitempty"` // Candidate value
}

// FieldDiff is one output field's comparison verdict.
type FieldDiff struct {
	Field           string  `json:"field"`
	Magnitude       float64 `json:"magnitude"` // Deviation the verdict is based on
	WithinTolerance bool    `json:"withinTolerance"`
}

// PerfDiff is a scalar metric comparison.
type PerfDiff struct {
	Metric        string  `json:"metric"`
	OldValue      float64 `json:"oldValue"`
	NewValue      float64 `json:"newValue"`
	PercentChange float64 `json:"percentChange"` // Signed, relative to the baseline value
}

// Result is the outcome of one comparison. Exactly the fields implied by
// Kind are populated.
type Result struct {
	Kind    Kind          `json:"kind"`
	Entries []ConfigEntry `json:"entries,omitempty"` // KindConfigDifference
	Fields  []FieldDiff   `json:"fields,omitempty"`  // KindOutputDifference
	Perf    *PerfDiff     `json:"perf,omitempty"`    // KindPerformanceDifference
}

// HasDifference reports whether the result carries a blessable difference.
func (r Result) HasDifference() bool {
	return r.Kind != KindNoDifference && r.Kind != KindNoBaseline
}
