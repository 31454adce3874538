package diff

import (
	"errors"
	"fmt"

	"simbless/internal/perf"
)

// ComparePerf compares one scalar metric measured in caseDir against the
// value recorded in baselineDir. No tolerance is applied: any difference in
// recorded values is reportable, and it is the decision policy that decides
// whether to act on it.
//
// A missing candidate measurement is an ErrCompare; a missing baseline file
// or a baseline file without the metric yields KindNoBaseline.
func ComparePerf(metric, caseDir, baselineDir string) (Result, error) {
	candidate, err := perf.Load(caseDir)
	if err != nil {
		return Result{}, fmt.Errorf("%w: candidate: %v", ErrCompare, err)
	}
	newValue, ok := candidate[metric]
	if !ok {
		return Result{}, fmt.Errorf("%w: candidate has no %s measurement", ErrCompare, metric)
	}

	base, err := perf.Load(baselineDir)
	if err != nil {
		if errors.Is(err, perf.ErrNoMeasurement) {
			return Result{Kind: KindNoBaseline}, nil
		}
		return Result{}, fmt.Errorf("%w: baseline: %v", ErrCompare, err)
	}
	oldValue, ok := base[metric]
	if !ok {
		return Result{Kind: KindNoBaseline}, nil
	}

	if newValue == oldValue {
		return Result{Kind: KindNoDifference}, nil
	}

	return Result{
		Kind: KindPerformanceDifference,
		Perf: &PerfDiff{
			Metric:        metric,
			OldValue:      oldValue,
			NewValue:      newValue,
			PercentChange: percentChange(oldValue, newValue),
		},
	}, nil
}

func percentChange(oldValue, newValue float64) float64 {
	if oldValue == 0 {
		if newValue == 0 {
			return 0
		}
		return 100
	}
	return (newValue - oldValue) / oldValue * 100
}
