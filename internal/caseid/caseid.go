// Package caseid parses and formats test-case identifiers.
// A case result directory is named "<name>.<variant>.<testid>", where the
// variant may itself contain dots (grid and configuration components) and
// the test id is always the final component.
package caseid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedName is returned when a directory name cannot be parsed.
var ErrMalformedName = errors.New("malformed case name")

// ID identifies a single test case.
type ID struct {
	Name    string // Test name (first component)
	Variant string // Grid/configuration components between name and test id
	TestID  string // Run identifier (last component)
}

// Parse splits a case directory name into its components.
// At least three dot-separated components are required.
func Parse(dirName string) (ID, error) {
	parts := strings.Split(dirName, ".")
	if len(parts) < 3 {
		return ID{}, fmt.Errorf("%w: %q needs name, variant and test id", ErrMalformedName, dirName)
	}
	for _, p := range parts {
		if p == "" {
			return ID{}, fmt.Errorf("%w: %q has an empty component", ErrMalformedName, dirName)
		}
	}

	return ID{
		Name:    parts[0],
		Variant: strings.Join(parts[1:len(parts)-1], "."),
		TestID:  parts[len(parts)-1],
	}, nil
}

// Full returns the complete directory name including the test id.
func (id ID) Full() string {
	return id.Name + "." + id.Variant + "." + id.TestID
}

// BaseName returns the case name with the test id stripped.
// Baselines are keyed by this name so that results from different runs
// compare against the same baseline entry.
func (id ID) BaseName() string {
	return id.Name + "." + id.Variant
}
