// Package policy decides what to do with a comparison result: bless it into
// the baseline store, skip it, or defer to the operator.
package policy

import (
	"simbless/internal/diff"
	"simbless/internal/status"
)

// Mode is the run mode selected for one engine invocation.
type Mode string

const (
	Interactive Mode = "interactive" // Ask the operator per difference
	Forced      Mode = "forced"      // Bless every selected difference
	ReportOnly  Mode = "report-only" // Surface differences, never bless
)

// Selection restricts which phases a run acts on. NamelistsOnly and HistOnly
// are mutually exclusive; BlessTput and BlessMem are independent opt-ins.
type Selection struct {
	NamelistsOnly bool
	HistOnly      bool
	BlessTput     bool
	BlessMem      bool
}

// Includes reports whether a phase is in the selected set. Configuration and
// output are on by default; the performance phases act only when explicitly
// requested.
func (s Selection) Includes(phase status.Phase) bool {
	switch phase {
	case status.PhaseConfig:
		return !s.HistOnly
	case status.PhaseOutput:
		return !s.NamelistsOnly
	case status.PhaseThroughput:
		return s.BlessTput
	case status.PhaseMemory:
		return s.BlessMem
	default:
		return false
	}
}

// Decision is the policy's verdict for one (case, phase) comparison.
type Decision string

const (
	Bless   Decision = "bless"
	Skip    Decision = "skip"
	AskUser Decision = "ask-user"
)

// Evaluate applies the decision state machine.
//
// NoDifference never blesses, in any mode. NoBaseline on a selected phase is
// blessable, since first-time blessing is how a baseline gets established.
// ReportOnly always skips; the caller still surfaces the diff.
func Evaluate(r diff.Result, mode Mode, sel Selection, phase status.Phase) Decision {
	if !sel.Includes(phase) {
		return Skip
	}
	if r.Kind == diff.KindNoDifference {
		return Skip
	}

	switch mode {
	case ReportOnly:
		return Skip
	case Forced:
		return Bless
	default:
		return AskUser
	}
}

// Decider resolves an AskUser decision. Implementations may prompt a console,
// consult a queue, or apply a canned policy in tests.
type Decider interface {
	Decide(r diff.Result) (accept bool, err error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(r diff.Result) (bool, error)

// Decide calls f.
func (f DeciderFunc) Decide(r diff.Result) (bool, error) {
	return f(r)
}
