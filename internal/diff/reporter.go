package diff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatCLI formats a comparison result for terminal output.
// Returns "" when there is nothing to report.
func FormatCLI(r Result) string {
	switch r.Kind {
	case KindNoBaseline:
		return "  (no baseline recorded; a bless will create it)\n"
	case KindConfigDifference:
		return formatConfig(r.Entries)
	case KindOutputDifference:
		return formatOutput(r.Fields)
	case KindPerformanceDifference:
		return formatPerf(r.Perf)
	default:
		return ""
	}
}

func formatConfig(entries []ConfigEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  configuration differs in %d key(s):\n", len(entries)))
	for _, e := range entries {
		switch e.Type {
		case Added:
			sb.WriteString(fmt.Sprintf("    + %s: (unset) -> %s\n", e.Key, e.New))
		case Removed:
			sb.WriteString(fmt.Sprintf("    - %s: %s -> (unset)\n", e.Key, e.Old))
		case Changed:
			sb.WriteString(fmt.Sprintf("    ~ %s: %s -> %s\n", e.Key, e.Old, e.New))
		}
	}
	return sb.String()
}

func formatOutput(fields []FieldDiff) string {
	var sb strings.Builder

	breached := 0
	for _, f := range fields {
		if !f.WithinTolerance {
			breached++
		}
	}
	sb.WriteString(fmt.Sprintf("  output differs: %d of %d field(s) outside tolerance:\n",
		breached, len(fields)))

	for _, f := range fields {
		verdict := "OUTSIDE"
		if f.WithinTolerance {
			verdict = "within"
		}
		sb.WriteString(fmt.Sprintf("    %-16s deviation %-12.6g %s tolerance\n",
			f.Field, f.Magnitude, verdict))
	}
	return sb.String()
}

func formatPerf(p *PerfDiff) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("  %s changed: %g -> %g (%+.2f%%)\n",
		p.Metric, p.OldValue, p.NewValue, p.PercentChange)
}

// FormatJSON formats a comparison result as indented JSON.
func FormatJSON(r Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
