// Package cli parses the command line surface into engine options.
package cli

import (
	"errors"

	"github.com/spf13/pflag"

	"simbless/internal/policy"
)

// ErrPhaseConflict is returned when both phase restrictions are requested:
// namelists-only and hist-only cannot both hold.
var ErrPhaseConflict = errors.New("--namelists-only and --hist-only are mutually exclusive")

// ErrModeConflict is returned when --force and --report-only are combined.
var ErrModeConflict = errors.New("--force and --report-only are mutually exclusive")

// Options is the parsed command line.
type Options struct {
	TestRoot     string
	TestID       string
	Include      []string // Positional args: case name regexes
	Exclude      []string
	BaselineName string
	BaselineRoot string

	NamelistsOnly bool
	HistOnly      bool
	BlessTput     bool
	BlessMem      bool

	Force      bool
	ReportOnly bool
	NoSkipPass bool
	NoLock     bool

	ReportFile string
	DBPath     string

	Help bool
}

func (o *Options) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("simbless", pflag.ContinueOnError)
	fs.StringVarP(&o.TestRoot, "test-root", "r", ".", "directory containing case result directories")
	fs.StringVarP(&o.TestID, "test-id", "t", "", "only consider cases with this test id suffix")
	fs.StringSliceVar(&o.Exclude, "exclude", nil, "case name regexes to exclude")
	fs.StringVarP(&o.BaselineName, "baseline-name", "b", "", "baseline name, overriding per-case names")
	fs.StringVar(&o.BaselineRoot, "baseline-root", "", "root directory of the baseline store")
	fs.BoolVarP(&o.NamelistsOnly, "namelists-only", "n", false, "only consider the configuration phase")
	fs.BoolVarP(&o.HistOnly, "hist-only", "h", false, "only consider the output phase")
	fs.BoolVar(&o.BlessTput, "bless-tput", false, "also consider the throughput phase")
	fs.BoolVar(&o.BlessMem, "bless-mem", false, "also consider the memory phase")
	fs.BoolVarP(&o.Force, "force", "f", false, "bless every difference without prompting")
	fs.BoolVar(&o.ReportOnly, "report-only", false, "report differences without blessing anything")
	fs.BoolVar(&o.NoSkipPass, "no-skip-pass", false, "re-examine phases that already passed")
	fs.BoolVar(&o.NoLock, "no-lock", false, "leave promoted baseline files writable")
	fs.StringVar(&o.ReportFile, "report-file", "", "write a machine-readable run report to this path")
	fs.StringVar(&o.DBPath, "db", "", "record the run in this history database")
	fs.BoolVar(&o.Help, "help", false, "show usage")
	fs.SortFlags = false
	return fs
}

// Parse reads args (without the program name) into Options.
func Parse(args []string) (Options, error) {
	var opts Options

	fs := opts.flagSet()
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	opts.Include = fs.Args()

	if opts.Help {
		return opts, nil
	}
	return opts, opts.Validate()
}

// Validate enforces the mutual exclusions of the flag surface.
func (o Options) Validate() error {
	if o.NamelistsOnly && o.HistOnly {
		return ErrPhaseConflict
	}
	if o.Force && o.ReportOnly {
		return ErrModeConflict
	}
	return nil
}

// Mode maps the flag surface onto a run mode. Interactive is the default.
func (o Options) Mode() policy.Mode {
	switch {
	case o.ReportOnly:
		return policy.ReportOnly
	case o.Force:
		return policy.Forced
	default:
		return policy.Interactive
	}
}

// Selection maps the phase flags onto a phase selection.
func (o Options) Selection() policy.Selection {
	return policy.Selection{
		NamelistsOnly: o.NamelistsOnly,
		HistOnly:      o.HistOnly,
		BlessTput:     o.BlessTput,
		BlessMem:      o.BlessMem,
	}
}

// Usage returns the flag help text.
func Usage() string {
	var o Options
	return "usage: simbless [flags] [case-regex ...]\n\n" + o.flagSet().FlagUsages()
}
