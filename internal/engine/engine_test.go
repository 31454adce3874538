package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simbless/internal/baseline"
	"simbless/internal/caseconf"
	"simbless/internal/diff"
	"simbless/internal/history"
	"simbless/internal/perf"
	"simbless/internal/policy"
	"simbless/internal/registry"
	"simbless/internal/snapshot"
	"simbless/internal/status"
	"simbless/internal/tolerance"
)

// caseFixture describes one case result directory to create under a root.
type caseFixture struct {
	name      string
	namelists map[string]string
	fields    map[string][]float64
	perf      map[string]float64
}

func makeRoot(t *testing.T, fixtures ...caseFixture) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range fixtures {
		dir := filepath.Join(root, f.name)
		require.NoError(t, os.Mkdir(dir, 0o755))
		if f.namelists != nil {
			require.NoError(t, caseconf.WriteNamelists(dir, f.namelists))
		}
		if f.fields != nil {
			require.NoError(t, snapshot.Save(dir, f.fields))
		}
		if f.perf != nil {
			require.NoError(t, perf.Save(dir, f.perf))
		}
	}
	return root
}

// seedBaseline writes baseline artifacts for a case base name.
func seedBaseline(t *testing.T, ref baseline.Ref, baseName string, f caseFixture) {
	t.Helper()
	dir := ref.CaseDir(baseName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if f.namelists != nil {
		require.NoError(t, caseconf.WriteNamelists(dir, f.namelists))
	}
	if f.fields != nil {
		require.NoError(t, snapshot.Save(dir, f.fields))
	}
	if f.perf != nil {
		require.NoError(t, perf.Save(dir, f.perf))
	}
}

func defaultOpts(testRoot, baselineRoot string) Options {
	return Options{
		TestRoot:        testRoot,
		BaselineRoot:    baselineRoot,
		DefaultBaseline: "main",
		Mode:            policy.Forced,
	}
}

func TestRunDiscoveryErrorIsFatal(t *testing.T) {
	opts := defaultOpts(filepath.Join(t.TempDir(), "missing"), t.TempDir())

	_, err := New(opts).Run()
	require.Error(t, err)
	assert.True(t, IsDiscoveryError(err))
	assert.True(t, errors.Is(err, registry.ErrNoTestRoot))
}

func TestForcedBlessRoundTrip(t *testing.T) {
	nl := map[string]string{"dt_atmos": "900"}
	root := makeRoot(t, caseFixture{name: "foo.coarse.t1", namelists: nl})
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}
	seedBaseline(t, ref, "foo.coarse", caseFixture{namelists: map[string]string{"dt_atmos": "1800"}})

	opts := defaultOpts(root, ref.Root)
	opts.Selection = policy.Selection{NamelistsOnly: true}

	s, err := New(opts).Run()
	require.NoError(t, err)
	require.Len(t, s.Cases, 1)
	assert.Equal(t, OutcomeBlessed, s.Cases[0].Outcome)
	assert.True(t, s.Success)

	// Phase status recorded PASS
	st, err := status.Get(filepath.Join(root, "foo.coarse.t1"), status.PhaseConfig)
	require.NoError(t, err)
	assert.Equal(t, status.Pass, st)

	// Baseline now matches the candidate
	r, err := diff.CompareConfig(filepath.Join(root, "foo.coarse.t1"), ref.CaseDir("foo.coarse"))
	require.NoError(t, err)
	assert.Equal(t, diff.KindNoDifference, r.Kind)

	// A second run skips via the pass gate
	s, err = New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, s.Cases[0].Outcome)
	assert.Empty(t, s.Cases[0].Phases, "passed phase is never diffed again")
}

func TestReportOnlyNeverTouchesBaseline(t *testing.T) {
	root := makeRoot(t, caseFixture{
		name:   "foo.coarse.t1",
		fields: map[string][]float64{"TS": {288.25}},
	})
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}
	seedBaseline(t, ref, "foo.coarse", caseFixture{fields: map[string][]float64{"TS": {288.15}}})

	before, err := os.ReadFile(filepath.Join(ref.CaseDir("foo.coarse"), snapshot.FileName))
	require.NoError(t, err)

	var buf bytes.Buffer
	opts := defaultOpts(root, ref.Root)
	opts.Mode = policy.ReportOnly
	opts.Selection = policy.Selection{HistOnly: true}
	opts.Out = &buf

	s, err := New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, s.Cases[0].Outcome)
	assert.True(t, s.Success, "reported-but-unblessed differences still succeed")
	assert.Contains(t, buf.String(), "OUTSIDE tolerance", "diff surfaced to the reporter")

	after, err := os.ReadFile(filepath.Join(ref.CaseDir("foo.coarse"), snapshot.FileName))
	require.NoError(t, err)
	assert.Equal(t, before, after, "baseline unmodified")
}

func TestUnselectedMetricTakesNoAction(t *testing.T) {
	// Case differs only in memory; the run selects throughput
	nl := map[string]string{"k": "v"}
	root := makeRoot(t, caseFixture{
		name:      "foo.coarse.t1",
		namelists: nl,
		perf:      map[string]float64{perf.MetricThroughput: 100, perf.MetricMemory: 120},
	})
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}
	seedBaseline(t, ref, "foo.coarse", caseFixture{
		namelists: nl,
		perf:      map[string]float64{perf.MetricThroughput: 100, perf.MetricMemory: 90},
	})

	opts := defaultOpts(root, ref.Root)
	opts.Selection = policy.Selection{NamelistsOnly: true, BlessTput: true}

	s, err := New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, s.Cases[0].Outcome)
	for _, po := range s.Cases[0].Phases {
		assert.NotEqual(t, status.PhaseMemory, po.Phase, "memory never compared")
		assert.False(t, po.Blessed)
	}
}

func TestBlessMemoryMergesMetric(t *testing.T) {
	fields := map[string][]float64{"TS": {288.15}}
	root := makeRoot(t, caseFixture{
		name:   "foo.coarse.t1",
		fields: fields,
		perf:   map[string]float64{perf.MetricThroughput: 100, perf.MetricMemory: 120},
	})
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}
	seedBaseline(t, ref, "foo.coarse", caseFixture{
		fields: fields,
		perf:   map[string]float64{perf.MetricThroughput: 95, perf.MetricMemory: 90},
	})

	opts := defaultOpts(root, ref.Root)
	opts.Selection = policy.Selection{HistOnly: true, BlessMem: true}

	s, err := New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlessed, s.Cases[0].Outcome)

	got, err := perf.Load(ref.CaseDir("foo.coarse"))
	require.NoError(t, err)
	assert.Equal(t, 120.0, got[perf.MetricMemory], "memory blessed")
	assert.Equal(t, 95.0, got[perf.MetricThroughput], "throughput baseline untouched")
}

func TestUpdateFailureIsIsolated(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission-based failure injection does not work as root")
	}

	nlOld := map[string]string{"dt_atmos": "1800"}
	nlNew := map[string]string{"dt_atmos": "900"}
	root := makeRoot(t,
		caseFixture{name: "foo.coarse.t1", namelists: nlNew},
		caseFixture{name: "qux.coarse.t1", namelists: nlNew},
	)
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}
	seedBaseline(t, ref, "foo.coarse", caseFixture{namelists: nlOld})
	seedBaseline(t, ref, "qux.coarse", caseFixture{namelists: nlOld})

	// Make qux's baseline directory unwritable so the promote fails
	quxDir := ref.CaseDir("qux.coarse")
	require.NoError(t, os.Chmod(quxDir, 0o555))
	t.Cleanup(func() { os.Chmod(quxDir, 0o755) })

	opts := defaultOpts(root, ref.Root)
	opts.Selection = policy.Selection{NamelistsOnly: true}

	s, err := New(opts).Run()
	require.NoError(t, err)
	require.Len(t, s.Cases, 2)

	assert.Equal(t, OutcomeBlessed, s.Cases[0].Outcome, "foo still processed")
	assert.Equal(t, OutcomeFailed, s.Cases[1].Outcome, "qux marked failed")
	assert.False(t, s.Success)

	var updateErr error
	for _, po := range s.Cases[1].Phases {
		if po.Err != nil {
			updateErr = po.Err
		}
	}
	assert.True(t, errors.Is(updateErr, baseline.ErrUpdate))
}

func TestFirstTimeBlessCreatesBaseline(t *testing.T) {
	nl := map[string]string{"dt_atmos": "900"}
	root := makeRoot(t, caseFixture{name: "foo.coarse.t1", namelists: nl})
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}

	opts := defaultOpts(root, ref.Root)
	opts.Selection = policy.Selection{NamelistsOnly: true}

	s, err := New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlessed, s.Cases[0].Outcome)

	got, err := caseconf.Namelists(ref.CaseDir("foo.coarse"))
	require.NoError(t, err)
	assert.Equal(t, nl, got)
}

func TestNoBaselineNoActionInReportOnly(t *testing.T) {
	root := makeRoot(t, caseFixture{name: "foo.coarse.t1", namelists: map[string]string{"k": "v"}})

	opts := defaultOpts(root, t.TempDir())
	opts.Mode = policy.ReportOnly
	opts.Selection = policy.Selection{NamelistsOnly: true}

	s, err := New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoBaselineNoAction, s.Cases[0].Outcome)
	assert.True(t, s.Success)
}

func TestInteractiveDeciderControlsBlessing(t *testing.T) {
	nlNew := map[string]string{"dt_atmos": "900"}
	root := makeRoot(t, caseFixture{name: "foo.coarse.t1", namelists: nlNew})
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}
	seedBaseline(t, ref, "foo.coarse", caseFixture{namelists: map[string]string{"dt_atmos": "1800"}})

	opts := defaultOpts(root, ref.Root)
	opts.Mode = policy.Interactive
	opts.Selection = policy.Selection{NamelistsOnly: true}

	// Reject: nothing happens
	opts.Decider = policy.DeciderFunc(func(diff.Result) (bool, error) { return false, nil })
	s, err := New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, s.Cases[0].Outcome)

	// Decider failure is a skip, not a hard error
	opts.Decider = policy.DeciderFunc(func(diff.Result) (bool, error) {
		return false, errors.New("terminal closed")
	})
	s, err = New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, s.Cases[0].Outcome)
	assert.True(t, s.Success)

	// Accept: blessed
	opts.Decider = policy.DeciderFunc(func(diff.Result) (bool, error) { return true, nil })
	s, err = New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlessed, s.Cases[0].Outcome)
}

func TestBaselineNameResolution(t *testing.T) {
	nl := map[string]string{"k": "v"}
	root := t.TempDir()
	dir := filepath.Join(root, "foo.coarse.t1")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, caseconf.WriteNamelists(dir, nl))
	require.NoError(t, os.WriteFile(filepath.Join(dir, caseconf.ConfigFile),
		[]byte("compare_name: recorded\n"), 0o644))

	baselineRoot := t.TempDir()

	// Case-recorded name wins over the default
	opts := defaultOpts(root, baselineRoot)
	opts.Selection = policy.Selection{NamelistsOnly: true}
	s, err := New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, "recorded", s.Cases[0].BaselineName)

	// Explicit override wins over everything
	opts.BaselineName = "explicit"
	opts.NoSkipPass = true
	s, err = New(opts).Run()
	require.NoError(t, err)
	assert.Equal(t, "explicit", s.Cases[0].BaselineName)
}

func TestToleranceGatesOutputBlessing(t *testing.T) {
	root := makeRoot(t, caseFixture{
		name:   "foo.coarse.t1",
		fields: map[string][]float64{"TS": {288.15 + 1e-12}},
	})
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}
	seedBaseline(t, ref, "foo.coarse", caseFixture{fields: map[string][]float64{"TS": {288.15}}})

	rules, err := tolerance.ParseRules([]string{"TS abs 1e-9"})
	require.NoError(t, err)

	opts := defaultOpts(root, ref.Root)
	opts.Selection = policy.Selection{HistOnly: true}
	opts.Rules = rules

	s, err := New(opts).Run()
	require.NoError(t, err)
	// Within tolerance: NoDifference, nothing blessed even under force
	assert.Equal(t, OutcomeSkipped, s.Cases[0].Outcome)
	require.Len(t, s.Cases[0].Phases, 1)
	assert.Equal(t, diff.KindNoDifference, s.Cases[0].Phases[0].Result.Kind)
}

func TestRunRecordsHistory(t *testing.T) {
	nl := map[string]string{"k": "v"}
	root := makeRoot(t, caseFixture{name: "foo.coarse.t1", namelists: nl})

	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	opts := defaultOpts(root, t.TempDir())
	opts.Selection = policy.Selection{NamelistsOnly: true}
	opts.History = db

	s, err := New(opts).Run()
	require.NoError(t, err)
	require.NotEmpty(t, s.RunID)

	run, err := db.GetRun(s.RunID)
	require.NoError(t, err)
	assert.True(t, run.Success)
	require.NotNil(t, run.CompletedAt)

	results, err := db.ListCaseResults(s.RunID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "foo.coarse.t1", results[0].CaseName)
	assert.Equal(t, string(OutcomeBlessed), results[0].Outcome)
}

func TestArtifact(t *testing.T) {
	nl := map[string]string{"dt_atmos": "900"}
	root := makeRoot(t, caseFixture{name: "foo.coarse.t1", namelists: nl})
	ref := baseline.Ref{Root: t.TempDir(), Name: "main"}
	seedBaseline(t, ref, "foo.coarse", caseFixture{namelists: map[string]string{"dt_atmos": "1800"}})

	opts := defaultOpts(root, ref.Root)
	opts.Selection = policy.Selection{NamelistsOnly: true}

	coord := New(opts)
	s, err := coord.Run()
	require.NoError(t, err)

	a := coord.Artifact(s)
	assert.Equal(t, "forced", a.Mode)
	assert.True(t, a.Success)
	require.Len(t, a.Cases, 1)
	assert.Equal(t, "foo.coarse.t1", a.Cases[0].Name)
	assert.Equal(t, string(OutcomeBlessed), a.Cases[0].Outcome)
	require.Len(t, a.Cases[0].Phases, 1)
	assert.True(t, a.Cases[0].Phases[0].Blessed)
}
