package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"simbless/internal/cli"
	"simbless/internal/config"
	"simbless/internal/diff"
	"simbless/internal/engine"
	"simbless/internal/history"
	"simbless/internal/policy"
	"simbless/internal/tolerance"
)

// Exit codes.
const (
	exitOK    = 0 // All selected phases handled, no failures
	exitCases = 1 // One or more cases failed
	exitUsage = 2 // Bad command line
	exitSetup = 3 // Discovery, config or history setup failed
)

func main() {
	os.Exit(run(os.Args[1:], os.Environ(), os.Stdin, os.Stdout, os.Stderr))
}

// run orchestrates one engine invocation. It is separated from main() so the
// full flow is testable with injected streams.
func run(args, environ []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		fmt.Fprint(stderr, cli.Usage())
		return exitUsage
	}
	if opts.Help {
		fmt.Fprint(stdout, cli.Usage())
		return exitOK
	}

	cfg, err := config.Load(environ)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitSetup
	}

	baselineRoot := opts.BaselineRoot
	if baselineRoot == "" {
		baselineRoot = cfg.BaselineRoot
	}

	rules, err := tolerance.ParseRules(cfg.ToleranceRules)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitSetup
	}

	var db *history.DB
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = cfg.DatabasePath
	}
	if dbPath != "" {
		db, err = history.Open(dbPath)
		if err != nil {
			fmt.Fprintln(stderr, "error: opening history database:", err)
			return exitSetup
		}
		defer db.Close()
	}

	var decider policy.Decider
	if opts.Mode() == policy.Interactive {
		decider = &consoleDecider{in: bufio.NewReader(stdin), out: stdout}
	}

	coord := engine.New(engine.Options{
		TestRoot:        opts.TestRoot,
		TestID:          opts.TestID,
		Include:         opts.Include,
		Exclude:         opts.Exclude,
		BaselineRoot:    baselineRoot,
		BaselineName:    opts.BaselineName,
		DefaultBaseline: cfg.DefaultBaseline,
		Mode:            opts.Mode(),
		Selection:       opts.Selection(),
		NoSkipPass:      opts.NoSkipPass,
		Lock:            !opts.NoLock,
		Rules:           rules,
		Decider:         decider,
		Out:             stdout,
		History:         db,
	})

	summary, err := coord.Run()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		if engine.IsDiscoveryError(err) {
			return exitSetup
		}
		return exitCases
	}

	if opts.ReportFile != "" {
		if err := coord.Artifact(summary).WriteToFile(opts.ReportFile); err != nil {
			fmt.Fprintln(stderr, "error: writing run report:", err)
			return exitCases
		}
	}

	if !summary.Success {
		return exitCases
	}
	return exitOK
}

// consoleDecider resolves interactive bless decisions on the terminal.
type consoleDecider struct {
	in  *bufio.Reader
	out io.Writer
}

func (d *consoleDecider) Decide(r diff.Result) (bool, error) {
	fmt.Fprint(d.out, diff.FormatCLI(r))
	fmt.Fprint(d.out, "bless? [y/N] ")

	line, err := d.in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
