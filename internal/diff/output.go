package diff

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"simbless/internal/snapshot"
	"simbless/internal/tolerance"
)

// CompareOutput compares the candidate's output snapshot in caseDir against
// the baseline snapshot in baselineDir under the given tolerance rules.
//
// Identical content hashes are the bit-for-bit fast path. Otherwise every
// field in either snapshot is compared; a field present on only one side, or
// with a different sample count, breaches tolerance unconditionally. When
// every field stays inside its band the result is KindNoDifference, so a
// within-tolerance deviation is not blessable. As soon as one field breaches
// the result is KindOutputDifference listing all fields.
//
// A missing candidate snapshot and corrupt data on either side are
// ErrCompare; a missing baseline snapshot yields KindNoBaseline.
func CompareOutput(caseDir, baselineDir string, rules tolerance.RuleSet) (Result, error) {
	candidate, err := snapshot.Load(caseDir)
	if err != nil {
		return Result{}, fmt.Errorf("%w: candidate: %v", ErrCompare, err)
	}

	base, err := snapshot.Load(baselineDir)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return Result{Kind: KindNoBaseline}, nil
		}
		return Result{}, fmt.Errorf("%w: baseline: %v", ErrCompare, err)
	}

	if candidate.Hash != "" && candidate.Hash == base.Hash {
		return Result{Kind: KindNoDifference}, nil
	}

	fields := compareFields(base, candidate, rules)

	for _, f := range fields {
		if !f.WithinTolerance {
			return Result{Kind: KindOutputDifference, Fields: fields}, nil
		}
	}
	return Result{Kind: KindNoDifference}, nil
}

func compareFields(base, candidate snapshot.OutputSnapshot, rules tolerance.RuleSet) []FieldDiff {
	names := make(map[string]bool)
	for _, n := range base.FieldNames() {
		names[n] = true
	}
	for _, n := range candidate.FieldNames() {
		names[n] = true
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var fields []FieldDiff
	for _, name := range sorted {
		baseVals, inBase := base.Fields[name]
		candVals, inCand := candidate.Fields[name]

		if !inBase || !inCand || len(baseVals) != len(candVals) {
			// Structural mismatch: no tolerance band can cover it
			fields = append(fields, FieldDiff{
				Field:     name,
				Magnitude: math.Inf(1),
			})
			continue
		}

		absDev, relDev := deviations(baseVals, candVals)
		magnitude, within := rules.Check(name, absDev, relDev)
		fields = append(fields, FieldDiff{
			Field:           name,
			Magnitude:       magnitude,
			WithinTolerance: within,
		})
	}

	return fields
}

// deviations computes the max absolute and max relative deviation between
// two equal-length sample series.
func deviations(base, candidate []float64) (absDev, relDev float64) {
	for i := range base {
		d := math.Abs(candidate[i] - base[i])
		if d > absDev {
			absDev = d
		}

		scale := math.Max(math.Abs(base[i]), math.Abs(candidate[i]))
		var r float64
		if scale > 0 {
			r = d / scale
		} else if d > 0 {
			r = math.Inf(1)
		}
		if r > relDev {
			relDev = r
		}
	}
	return absDev, relDev
}
