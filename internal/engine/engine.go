// Package engine drives the bless pipeline: discover cases, gate phases on
// recorded status, diff against the baseline, decide, promote, record.
package engine

import (
	"errors"
	"fmt"
	"io"

	"simbless/internal/baseline"
	"simbless/internal/caseconf"
	"simbless/internal/diff"
	"simbless/internal/history"
	"simbless/internal/perf"
	"simbless/internal/policy"
	"simbless/internal/registry"
	"simbless/internal/report"
	"simbless/internal/status"
	"simbless/internal/tolerance"
)

// Outcome classifies one case after processing.
type Outcome string

const (
	OutcomeBlessed            Outcome = "blessed"
	OutcomeSkipped            Outcome = "skipped"
	OutcomeFailed             Outcome = "failed"
	OutcomeNoBaselineNoAction Outcome = "no-baseline-no-action"
)

// Options configures one engine invocation. All state is scoped here;
// nothing is process-global.
type Options struct {
	TestRoot string
	TestID   string
	Include  []string
	Exclude  []string

	BaselineRoot    string
	BaselineName    string // Explicit override; "" resolves per case
	DefaultBaseline string

	Mode       policy.Mode
	Selection  policy.Selection
	NoSkipPass bool
	Lock       bool

	Rules   tolerance.RuleSet
	Decider policy.Decider // Resolves interactive decisions; nil rejects

	Out     io.Writer   // Human-readable report; nil discards
	History *history.DB // Optional run-history recording
}

// PhaseOutcome is what happened to one (case, phase).
type PhaseOutcome struct {
	Phase    status.Phase
	Result   diff.Result
	Decision policy.Decision
	Blessed  bool
	Err      error
}

// CaseOutcome is what happened to one case.
type CaseOutcome struct {
	Case         registry.TestCase
	BaselineName string
	Outcome      Outcome
	Phases       []PhaseOutcome
	Err          error
}

// Summary aggregates a whole invocation.
type Summary struct {
	RunID   string
	Cases   []CaseOutcome
	Blessed int
	Skipped int
	Failed  int
	NoBase  int
	Success bool
}

// Coordinator owns the lifetime of one invocation's in-memory state.
type Coordinator struct {
	opts Options
}

// New builds a Coordinator, filling in the inert defaults.
func New(opts Options) *Coordinator {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Decider == nil {
		opts.Decider = policy.DeciderFunc(func(diff.Result) (bool, error) {
			return false, nil
		})
	}
	return &Coordinator{opts: opts}
}

// Run processes every discovered case and returns the aggregated summary.
// Discovery failure is the only fatal error; per-case and per-phase failures
// are contained in the summary. Overall success means no case produced a
// comparison or update hard error.
func (c *Coordinator) Run() (Summary, error) {
	cases, err := registry.List(c.opts.TestRoot, c.opts.TestID, c.opts.Include, c.opts.Exclude)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, tc := range cases {
		outcome := c.processCase(tc)
		c.printCase(outcome)
		summary.Cases = append(summary.Cases, outcome)

		switch outcome.Outcome {
		case OutcomeBlessed:
			summary.Blessed++
		case OutcomeFailed:
			summary.Failed++
		case OutcomeNoBaselineNoAction:
			summary.NoBase++
		default:
			summary.Skipped++
		}
	}

	summary.Success = summary.Failed == 0
	c.printSummary(summary)

	if c.opts.History != nil {
		if err := c.record(&summary); err != nil {
			fmt.Fprintf(c.opts.Out, "warning: run history not recorded: %v\n", err)
		}
	}

	return summary, nil
}

// processCase runs the phase pipeline for a single case. Errors are captured
// in the outcome; they never abort the remaining cases.
func (c *Coordinator) processCase(tc registry.TestCase) CaseOutcome {
	out := CaseOutcome{Case: tc}

	cfg, err := caseconf.Load(tc.Dir)
	if err != nil {
		out.Outcome = OutcomeFailed
		out.Err = err
		return out
	}

	out.BaselineName = baseline.ResolveName(c.opts.BaselineName, cfg.CompareName, c.opts.DefaultBaseline)
	ref := baseline.Ref{Root: c.opts.BaselineRoot, Name: out.BaselineName}
	baselineDir := ref.CaseDir(tc.ID.BaseName())

	sawNoBaseline := false
	sawOther := false

	for _, phase := range status.Phases {
		if !c.opts.Selection.Includes(phase) {
			continue
		}

		po, diffed := c.processPhase(tc, phase, ref, baselineDir)
		if !diffed {
			continue // Prior PASS, never diffed, policy not invoked
		}
		out.Phases = append(out.Phases, po)

		switch {
		case po.Err != nil:
			sawOther = true
		case po.Result.Kind == diff.KindNoBaseline:
			sawNoBaseline = true
		default:
			sawOther = true
		}
	}

	out.Outcome = classify(out.Phases, sawNoBaseline, sawOther)
	return out
}

// processPhase diffs, decides and (maybe) promotes one phase. The second
// return is false when the skip-if-pass gate fired and nothing was diffed.
func (c *Coordinator) processPhase(tc registry.TestCase, phase status.Phase, ref baseline.Ref, baselineDir string) (PhaseOutcome, bool) {
	po := PhaseOutcome{Phase: phase}

	if !c.opts.NoSkipPass {
		prior, err := status.Get(tc.Dir, phase)
		if err != nil {
			po.Err = err
			return po, true
		}
		// Re-diffing a passed phase against a possibly-since-updated
		// baseline could produce false differences.
		if prior == status.Pass {
			return po, false
		}
	}

	result, err := c.compare(phase, tc.Dir, baselineDir)
	if err != nil {
		po.Err = err
		return po, true
	}
	po.Result = result

	po.Decision = policy.Evaluate(result, c.opts.Mode, c.opts.Selection, phase)

	if po.Decision == policy.AskUser {
		accept, err := c.opts.Decider.Decide(result)
		if err != nil || !accept {
			// Declined or aborted prompts are skips, not hard errors
			po.Decision = policy.Skip
			return po, true
		}
		po.Decision = policy.Bless
	}

	if po.Decision != policy.Bless {
		return po, true
	}

	if err := baseline.Apply(phase, tc.Dir, ref, tc.ID.BaseName(), c.opts.Lock); err != nil {
		po.Err = err
		return po, true
	}

	// Verify the promotion before recording PASS
	verify, err := c.compare(phase, tc.Dir, baselineDir)
	if err != nil {
		po.Err = fmt.Errorf("verifying bless: %w", err)
		return po, true
	}
	if verify.Kind != diff.KindNoDifference {
		po.Err = fmt.Errorf("%w: %s still differs after bless", baseline.ErrUpdate, phase)
		return po, true
	}

	po.Blessed = true
	if err := status.Set(tc.Dir, phase, status.Pass); err != nil {
		po.Err = err
	}
	return po, true
}

func (c *Coordinator) compare(phase status.Phase, caseDir, baselineDir string) (diff.Result, error) {
	switch phase {
	case status.PhaseConfig:
		return diff.CompareConfig(caseDir, baselineDir)
	case status.PhaseOutput:
		return diff.CompareOutput(caseDir, baselineDir, c.opts.Rules)
	case status.PhaseThroughput:
		return diff.ComparePerf(perf.MetricThroughput, caseDir, baselineDir)
	case status.PhaseMemory:
		return diff.ComparePerf(perf.MetricMemory, caseDir, baselineDir)
	default:
		return diff.Result{}, fmt.Errorf("%w: unknown phase %q", diff.ErrCompare, phase)
	}
}

func classify(phases []PhaseOutcome, sawNoBaseline, sawOther bool) Outcome {
	for _, po := range phases {
		if po.Err != nil {
			return OutcomeFailed
		}
	}
	for _, po := range phases {
		if po.Blessed {
			return OutcomeBlessed
		}
	}
	if sawNoBaseline && !sawOther {
		return OutcomeNoBaselineNoAction
	}
	return OutcomeSkipped
}

// Artifact converts a summary into the machine-readable run report.
func (c *Coordinator) Artifact(s Summary) report.RunArtifact {
	a := report.RunArtifact{
		RunID:        s.RunID,
		BaselineRoot: c.opts.BaselineRoot,
		Mode:         string(c.opts.Mode),
		Success:      s.Success,
	}

	for _, co := range s.Cases {
		cr := report.CaseRecord{
			Name:         co.Case.ID.Full(),
			BaselineName: co.BaselineName,
			Outcome:      string(co.Outcome),
		}
		if co.Err != nil {
			cr.Error = co.Err.Error()
		}
		for _, po := range co.Phases {
			pr := report.PhaseRecord{
				Phase:    string(po.Phase),
				Kind:     string(po.Result.Kind),
				Decision: string(po.Decision),
				Blessed:  po.Blessed,
			}
			if po.Err != nil {
				pr.Error = po.Err.Error()
			}
			cr.Phases = append(cr.Phases, pr)
		}
		a.Cases = append(a.Cases, cr)
	}

	return a
}

func (c *Coordinator) record(s *Summary) error {
	run := &history.Run{
		Mode:         string(c.opts.Mode),
		BaselineName: c.opts.BaselineName,
		Success:      s.Success,
	}
	if run.BaselineName == "" {
		run.BaselineName = c.opts.DefaultBaseline
	}
	if err := c.opts.History.CreateRun(run); err != nil {
		return err
	}
	s.RunID = run.ID

	var firstErr error
	for _, co := range s.Cases {
		cr := &history.CaseResult{
			RunID:    run.ID,
			CaseName: co.Case.ID.Full(),
			Outcome:  string(co.Outcome),
			Detail:   caseDetail(co),
		}
		if err := c.opts.History.CreateCaseResult(cr); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := c.opts.History.FinishRun(run); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func caseDetail(co CaseOutcome) string {
	if co.Err != nil {
		return co.Err.Error()
	}
	for _, po := range co.Phases {
		if po.Err != nil {
			return fmt.Sprintf("%s: %v", po.Phase, po.Err)
		}
	}
	return ""
}

// IsDiscoveryError reports whether err is a fatal discovery failure.
func IsDiscoveryError(err error) bool {
	return errors.Is(err, registry.ErrNoTestRoot) || errors.Is(err, registry.ErrNoCases)
}
