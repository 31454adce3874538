// Package baseline resolves where a case's accepted artifacts live and
// promotes candidate artifacts into that location.
package baseline

import "path/filepath"

// Ref identifies the resolved baseline location for one engine invocation.
type Ref struct {
	Root string // Baseline store root directory
	Name string // Baseline name (e.g. a release tag or branch identifier)
}

// CaseDir returns the directory holding the baseline artifacts for a case.
// Baselines are keyed by the id-less case name.
func (r Ref) CaseDir(caseBaseName string) string {
	return filepath.Join(r.Root, r.Name, caseBaseName)
}

// ResolveName picks the baseline name for a run. Precedence: the explicit
// override, then the compare name recorded with the case, then the
// invocation default.
func ResolveName(override, caseCompareName, defaultName string) string {
	if override != "" {
		return override
	}
	if caseCompareName != "" {
		return caseCompareName
	}
	return defaultName
}
