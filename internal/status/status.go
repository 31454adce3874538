// Package status persists per-case, per-phase outcome records inside each
// case's result directory. Records survive across engine invocations so a
// phase already confirmed PASS can be skipped on the next run.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the status record inside a case result directory.
const FileName = "phase_status.json"

// Phase is one of the four comparison categories.
type Phase string

const (
	PhaseConfig     Phase = "CONFIG"
	PhaseOutput     Phase = "OUTPUT"
	PhaseThroughput Phase = "THROUGHPUT"
	PhaseMemory     Phase = "MEMORY"
)

// Phases lists all phases in processing order.
var Phases = []Phase{PhaseConfig, PhaseOutput, PhaseThroughput, PhaseMemory}

// Status is the recorded outcome of a phase.
type Status string

const (
	Pass   Status = "PASS"
	Fail   Status = "FAIL"
	Pend   Status = "PEND"
	NotRun Status = "NOT_RUN"
)

// Get reads the recorded status of one phase. An absent record file or an
// absent phase entry reads as NotRun.
func Get(caseDir string, phase Phase) (Status, error) {
	records, err := read(caseDir)
	if err != nil {
		return NotRun, err
	}
	if s, ok := records[phase]; ok {
		return s, nil
	}
	return NotRun, nil
}

// Set records the status of one phase, overwriting any previous value.
// Other phases' records are preserved.
func Set(caseDir string, phase Phase, s Status) error {
	records, err := read(caseDir)
	if err != nil {
		return err
	}
	records[phase] = s

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling phase status: %w", err)
	}
	if err := os.WriteFile(filepath.Join(caseDir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("writing phase status: %w", err)
	}
	return nil
}

func read(caseDir string) (map[Phase]Status, error) {
	data, err := os.ReadFile(filepath.Join(caseDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return map[Phase]Status{}, nil
		}
		return nil, fmt.Errorf("reading phase status: %w", err)
	}

	records := make(map[Phase]Status)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing phase status: %w", err)
	}
	return records, nil
}
