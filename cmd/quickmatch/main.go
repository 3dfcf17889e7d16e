// Package main is the entry point for the quickmatch command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/quickmatch/internal/app"
	"github.com/dshills/quickmatch/internal/config"
	"github.com/dshills/quickmatch/internal/picker"
	"github.com/dshills/quickmatch/internal/source"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes follow the usual filter conventions: 1 means the query
// matched nothing, 130 means the user backed out of the picker.
const (
	exitOK      = 0
	exitNoMatch = 1
	exitUsage   = 2
	exitAborted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger, cleanup, err := setupLogging(cfg, opts.interactive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer cleanup()
	app.SetLogger(logger)

	application := app.New(cfg, logger)
	defer application.Close()

	application.Emitter().Compact = opts.compact
	application.Emitter().Color = resolveColor(cfg.Output.Color)

	if cfg.Script.File != "" {
		if err := application.LoadScript(cfg.Script.File); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitUsage
		}
	}

	if err := loadCandidates(application, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	err = runMode(application, opts)

	snap := application.Metrics().Snapshot()
	logger.Debug("session: %d searches (avg %.2fms) over %d candidates",
		snap.SearchCount, snap.AvgSearchMs(), snap.CandidateCount)

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, app.ErrNoMatch):
		return exitNoMatch
	case errors.Is(err, app.ErrAborted):
		return exitAborted
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
}

func runMode(application *app.Application, opts cliOptions) error {
	switch {
	case opts.interactive:
		screen, err := picker.NewTerminal()
		if err != nil {
			return app.WrapError(err, "opening terminal")
		}
		return application.RunInteractive(os.Stdout, screen)
	case opts.watch:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return application.Watch(ctx, os.Stdout, opts.abbr)
	default:
		return application.RunFilter(os.Stdout, opts.abbr)
	}
}

func loadConfig(opts cliOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, opts); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over the config, then
// re-validates since flags bypass the loader.
func applyFlags(cfg *config.Config, opts cliOptions) error {
	if opts.limit >= 0 {
		cfg.Ranking.Limit = opts.limit
	}
	if opts.minScore >= 0 {
		cfg.Ranking.MinScore = opts.minScore
	}
	if opts.output != "" {
		cfg.Output.Format = opts.output
	}
	if opts.scores {
		cfg.Output.Scores = true
	}
	if opts.script != "" {
		cfg.Script.File = opts.script
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}
	return cfg.Validate()
}

func setupLogging(cfg *config.Config, interactive bool) (*app.Logger, func(), error) {
	logCfg := app.DefaultLoggerConfig()
	logCfg.Level = app.ParseLogLevel(cfg.Logging.Level)
	logger := app.NewLogger(logCfg)

	cleanup := func() {}
	if cfg.Logging.File != "" {
		f, err := app.OpenLogFile(cfg.Logging.File)
		if err != nil {
			return nil, nil, err
		}
		logger.SetOutput(f)
		cleanup = func() { _ = f.Close() }
	} else if interactive {
		// The picker owns the terminal; keep stderr clean.
		logger = app.NullLogger
	}
	return logger, cleanup, nil
}

func resolveColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}

func loadCandidates(application *app.Application, opts cliOptions) error {
	srcOpts := source.Options{
		JSONPath:      opts.jsonPath,
		Glob:          opts.glob,
		NullSeparated: opts.nullSep,
	}
	switch {
	case opts.jsonPath != "":
		srcOpts.Format = source.FormatJSON
	case opts.yamlIn:
		srcOpts.Format = source.FormatYAML
	case opts.file != "":
		srcOpts.Format = source.DetectFormat(opts.file)
		if srcOpts.Format == source.FormatJSON {
			// Detected by suffix, so no path was given; rank the root array.
			srcOpts.JSONPath = "@this"
		}
	}

	if opts.file != "" {
		return application.LoadFile(opts.file, srcOpts)
	}
	return application.LoadReader(os.Stdin, srcOpts)
}

type cliOptions struct {
	configPath  string
	interactive bool
	watch       bool
	limit       int
	minScore    float64
	output      string
	scores      bool
	compact     bool
	jsonPath    string
	yamlIn      bool
	nullSep     bool
	glob        string
	script      string
	logLevel    string
	logFile     string

	abbr string
	file string
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.interactive, "interactive", false, "Pick a candidate in a full-screen terminal UI")
	flag.BoolVar(&opts.interactive, "i", false, "Pick a candidate interactively (shorthand)")
	flag.BoolVar(&opts.watch, "watch", false, "Re-rank whenever the candidates file changes")
	flag.IntVar(&opts.limit, "limit", -1, "Maximum number of results (0 = unlimited)")
	flag.IntVar(&opts.limit, "n", -1, "Maximum number of results (shorthand)")
	flag.Float64Var(&opts.minScore, "min-score", -1, "Drop results scoring below this (0..1)")
	flag.StringVar(&opts.output, "output", "", "Output format: text, ansi, markup, json")
	flag.StringVar(&opts.output, "o", "", "Output format (shorthand)")
	flag.BoolVar(&opts.scores, "score", false, "Prefix each result with its score")
	flag.BoolVar(&opts.scores, "s", false, "Prefix each result with its score (shorthand)")
	flag.BoolVar(&opts.compact, "compact", false, "Minify JSON output")
	flag.StringVar(&opts.jsonPath, "json", "", "Treat input as JSON; rank the array at this path (@this for the root)")
	flag.BoolVar(&opts.yamlIn, "yaml", false, "Treat input as a YAML list")
	flag.BoolVar(&opts.nullSep, "null", false, "Input candidates are NUL-separated")
	flag.BoolVar(&opts.nullSep, "0", false, "Input candidates are NUL-separated (shorthand)")
	flag.StringVar(&opts.glob, "glob", "", "Keep only candidates matching this pattern")
	flag.StringVar(&opts.glob, "g", "", "Keep only candidates matching this pattern (shorthand)")
	flag.StringVar(&opts.script, "lua", "", "Lua hook script (filter, target, boost)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.logFile, "log-file", "", "Write the log to this file instead of stderr")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "quickmatch - rank candidates against a typed abbreviation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: quickmatch [options] <abbreviation> [file]\n")
		fmt.Fprintf(os.Stderr, "       quickmatch -i [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Candidates come from file or stdin, one per line.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ls | quickmatch conf              Rank ls output against \"conf\"\n")
		fmt.Fprintf(os.Stderr, "  quickmatch -i < candidates.txt    Pick one interactively\n")
		fmt.Fprintf(os.Stderr, "  quickmatch -o json abc data.json  JSON candidates, JSON results\n")
		fmt.Fprintf(os.Stderr, "  quickmatch -json items.#.name abc api.json\n")
		fmt.Fprintf(os.Stderr, "                                    Rank names plucked from nested JSON\n")
		fmt.Fprintf(os.Stderr, "  quickmatch -watch conf files.txt  Re-rank when files.txt changes\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(exitOK)
	}

	if showVersion {
		fmt.Printf("quickmatch %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(exitOK)
	}

	if opts.interactive && opts.watch {
		fmt.Fprintf(os.Stderr, "Error: -i and -watch cannot be combined\n")
		os.Exit(exitUsage)
	}

	args := flag.Args()
	if opts.interactive {
		if len(args) > 1 {
			fmt.Fprintf(os.Stderr, "Error: too many arguments\n")
			flag.Usage()
			os.Exit(exitUsage)
		}
		if len(args) == 1 {
			opts.file = args[0]
		}
	} else {
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Error: missing abbreviation\n")
			flag.Usage()
			os.Exit(exitUsage)
		}
		if len(args) > 2 {
			fmt.Fprintf(os.Stderr, "Error: too many arguments\n")
			flag.Usage()
			os.Exit(exitUsage)
		}
		opts.abbr = args[0]
		if len(args) == 2 {
			opts.file = args[1]
		}
	}

	if opts.watch && opts.file == "" {
		fmt.Fprintf(os.Stderr, "Error: watch mode requires a candidates file\n")
		os.Exit(exitUsage)
	}

	return opts
}
