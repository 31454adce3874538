package engine

import (
	"fmt"

	"simbless/internal/diff"
	"simbless/internal/policy"
)

// printCase writes the human-readable report for one processed case.
func (c *Coordinator) printCase(co CaseOutcome) {
	w := c.opts.Out

	fmt.Fprintf(w, "%s (baseline %s): %s\n", co.Case.ID.Full(), co.BaselineName, co.Outcome)
	if co.Err != nil {
		fmt.Fprintf(w, "  error: %v\n", co.Err)
	}

	for _, po := range co.Phases {
		if po.Err != nil {
			fmt.Fprintf(w, "  %s: error: %v\n", po.Phase, po.Err)
			continue
		}

		switch {
		case po.Blessed && po.Result.Kind == diff.KindNoBaseline:
			fmt.Fprintf(w, "  %s: blessed (new baseline)\n", po.Phase)
			continue
		case po.Blessed:
			fmt.Fprintf(w, "  %s: blessed\n", po.Phase)
		case po.Result.Kind == diff.KindNoDifference:
			// Nothing to report
			continue
		case po.Decision == policy.Skip && po.Result.Kind == diff.KindNoBaseline:
			fmt.Fprintf(w, "  %s: no baseline, no action taken\n", po.Phase)
			continue
		}

		if text := diff.FormatCLI(po.Result); text != "" {
			fmt.Fprintf(w, "  %s:\n%s", po.Phase, indent(text))
		}
	}
}

func (c *Coordinator) printSummary(s Summary) {
	w := c.opts.Out

	fmt.Fprintf(w, "\n%d case(s): %d blessed, %d skipped, %d failed, %d without baseline\n",
		len(s.Cases), s.Blessed, s.Skipped, s.Failed, s.NoBase)
	if s.Success {
		fmt.Fprintln(w, "overall: success")
	} else {
		fmt.Fprintln(w, "overall: FAILURE")
	}
}

func indent(text string) string {
	var out []byte
	atLineStart := true
	for i := 0; i < len(text); i++ {
		if atLineStart && text[i] != '\n' {
			out = append(out, ' ', ' ')
		}
		out = append(out, text[i])
		atLineStart = text[i] == '\n'
	}
	return string(out)
}
