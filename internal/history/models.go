package history

import "time"

// Run represents one engine invocation.
type Run struct {
	ID           string // UUID
	StartedAt    time.Time
	CompletedAt  *time.Time
	Mode         string // 'interactive', 'forced', 'report-only'
	BaselineName string
	Success      bool
}

// CaseResult represents the outcome of one case within a run.
type CaseResult struct {
	ID       int64
	RunID    string
	CaseName string
	Outcome  string // 'blessed', 'skipped', 'failed', 'no-baseline-no-action'
	Detail   string
}
