package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"simbless/internal/caseconf"
	"simbless/internal/perf"
	"simbless/internal/snapshot"
	"simbless/internal/status"
)

// ErrUpdate wraps I/O failures while promoting a candidate into the
// baseline store. A failed update for one case must not abort others;
// callers record it and continue.
var ErrUpdate = errors.New("baseline update failed")

// Apply promotes the artifact for one phase from the case result directory
// into the baseline location. The landed file is written to a temporary name
// in the target directory and renamed into place, so a crash mid-update
// leaves either the old artifact or the new one, never a partial write.
//
// Configuration and output phases replace the whole artifact. Performance
// phases merge a single metric into the baseline measurement file, leaving
// the other metric untouched.
//
// When lock is set, write permission on the landed artifact is removed.
func Apply(phase status.Phase, caseDir string, ref Ref, caseBaseName string, lock bool) error {
	baselineDir := ref.CaseDir(caseBaseName)

	switch phase {
	case status.PhaseConfig:
		return copyArtifact(caseDir, baselineDir, caseconf.NamelistFile, lock)
	case status.PhaseOutput:
		return copyArtifact(caseDir, baselineDir, snapshot.FileName, lock)
	case status.PhaseThroughput:
		return mergeMetric(caseDir, baselineDir, perf.MetricThroughput, lock)
	case status.PhaseMemory:
		return mergeMetric(caseDir, baselineDir, perf.MetricMemory, lock)
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrUpdate, phase)
	}
}

func copyArtifact(caseDir, baselineDir, fileName string, lock bool) error {
	data, err := os.ReadFile(filepath.Join(caseDir, fileName))
	if err != nil {
		return fmt.Errorf("%w: reading candidate %s: %v", ErrUpdate, fileName, err)
	}
	return writeAtomic(filepath.Join(baselineDir, fileName), data, lock)
}

func mergeMetric(caseDir, baselineDir, metric string, lock bool) error {
	candidate, err := perf.Load(caseDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}
	value, ok := candidate[metric]
	if !ok {
		return fmt.Errorf("%w: candidate has no %s measurement", ErrUpdate, metric)
	}

	base, err := perf.Load(baselineDir)
	if err != nil {
		if !errors.Is(err, perf.ErrNoMeasurement) {
			return fmt.Errorf("%w: %v", ErrUpdate, err)
		}
		base = make(map[string]float64)
	}
	base[metric] = value

	data, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}
	return writeAtomic(filepath.Join(baselineDir, perf.FileName), data, lock)
}

// writeAtomic lands data at path via a same-directory temporary file and
// rename. Rename replaces a locked (read-only) previous artifact without
// needing write permission on it.
func writeAtomic(path string, data []byte, lock bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}

	tmp, err := os.CreateTemp(dir, ".promote-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}

	mode := os.FileMode(0o644)
	if lock {
		mode = 0o444
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}
	return nil
}
