// Package report produces the machine-readable run artifact: a JSON summary
// of every case's comparisons, decisions and outcomes for one invocation.
package report

import "encoding/json"

// RunArtifact is the full record of one engine invocation.
type RunArtifact struct {
	RunID        string       `json:"runId,omitempty"`
	BaselineRoot string       `json:"baselineRoot"`
	Mode         string       `json:"mode"`
	Success      bool         `json:"success"`
	Cases        []CaseRecord `json:"cases"`
}

// CaseRecord is one case's outcome.
type CaseRecord struct {
	Name         string        `json:"name"`
	BaselineName string        `json:"baselineName"`
	Outcome      string        `json:"outcome"`
	Phases       []PhaseRecord `json:"phases,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// PhaseRecord is one (case, phase) comparison and what was done about it.
type PhaseRecord struct {
	Phase    string `json:"phase"`
	Kind     string `json:"kind,omitempty"` // Diff result kind
	Decision string `json:"decision,omitempty"`
	Blessed  bool   `json:"blessed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ToJSON serializes the artifact to pretty-printed JSON.
func (a RunArtifact) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}
