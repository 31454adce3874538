package diff

import (
	"errors"
	"fmt"
	"sort"

	"simbless/internal/caseconf"
)

// CompareConfig compares the candidate's runtime configuration in caseDir
// against the baseline configuration in baselineDir. The comparison is
// order-independent; only keys whose values differ are reported, key-sorted.
//
// A missing candidate configuration is an ErrCompare; a missing baseline
// configuration yields KindNoBaseline.
func CompareConfig(caseDir, baselineDir string) (Result, error) {
	candidate, err := caseconf.Namelists(caseDir)
	if err != nil {
		return Result{}, fmt.Errorf("%w: candidate: %v", ErrCompare, err)
	}

	base, err := caseconf.Namelists(baselineDir)
	if err != nil {
		if errors.Is(err, caseconf.ErrNoNamelist) {
			return Result{Kind: KindNoBaseline}, nil
		}
		return Result{}, fmt.Errorf("%w: baseline: %v", ErrCompare, err)
	}

	entries := diffValues(base, candidate)
	if len(entries) == 0 {
		return Result{Kind: KindNoDifference}, nil
	}

	return Result{Kind: KindConfigDifference, Entries: entries}, nil
}

// diffValues reports the keys whose values differ between two maps,
// sorted by key for deterministic output.
func diffValues(base, candidate map[string]string) []ConfigEntry {
	allKeys := make(map[string]bool)
	for k := range base {
		allKeys[k] = true
	}
	for k := range candidate {
		allKeys[k] = true
	}

	keys := make([]string, 0, len(allKeys))
	for k := range allKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var entries []ConfigEntry
	for _, key := range keys {
		oldVal, inBase := base[key]
		newVal, inCandidate := candidate[key]

		switch {
		case inBase && !inCandidate:
			entries = append(entries, ConfigEntry{Key: key, Type: Removed, Old: oldVal})
		case !inBase && inCandidate:
			entries = append(entries, ConfigEntry{Key: key, Type: Added, New: newVal})
		case oldVal != newVal:
			entries = append(entries, ConfigEntry{Key: key, Type: Changed, Old: oldVal, New: newVal})
		}
	}

	return entries
}
