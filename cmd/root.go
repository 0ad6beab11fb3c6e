// Package cmd implements the hws CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/hws/internal/app"
	"github.com/derickschaefer/hws/internal/config"
	"github.com/derickschaefer/hws/internal/rangectl"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	FeedURL     string
	DB          string
	Format      string
	Out         string
	Timeout     string
	Concurrency int
	Rate        float64
	Width       int
	Height      int
	HControls   string
	VControls   string
	Quiet       bool
	Verbose     bool
	Debug       bool
	Trace       bool
}

// rootCmd is the base command. Running `hws` with no subcommand prints help.
var rootCmd = &cobra.Command{
	Use:   "hws",
	Short: "hws — reservoir water levels in the terminal",
	Long: `hws keeps a local database of reservoir fill levels and charts them in the
terminal. Every chart axis carries range controls: a lower limit, an upper
limit and a range thumb, each on a 0–100 % scale of the full data range.

Quick start:
  hws config init                       # create a config.json
  hws reservoir sync                    # load the reservoir catalogue from the feed
  hws fetch OKER SOESE --store          # download daily levels
  hws chart plot OKER --lower 50        # plot the second half of the history
  hws view OKER                         # move the window interactively`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(os.Stderr, globalFlags.Debug, globalFlags.Trace)
	},
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler. --debug enables HTTP and
// data-change records, --trace enables range listener records.
func setupLogging(w *os.File, debug, trace bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))

	if trace {
		rangectl.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		rangectl.SetLogger(nil)
	}
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(globalFlags.FeedURL, globalFlags.DB)
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug
	cfg.Trace = globalFlags.Trace

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Timeout != "" {
		d, err := time.ParseDuration(globalFlags.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if globalFlags.Concurrency > 0 {
		cfg.Concurrency = globalFlags.Concurrency
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if globalFlags.Width > 0 {
		cfg.Width = globalFlags.Width
	}
	if globalFlags.Height > 0 {
		cfg.Height = globalFlags.Height
	}
	if globalFlags.HControls != "" {
		cfg.HControls = globalFlags.HControls
	}
	if globalFlags.VControls != "" {
		cfg.VControls = globalFlags.VControls
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return app.New(cfg), nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.FeedURL, "feed-url", "",
		"water-level feed base URL (overrides env HWS_FEED_URL and config.json)")
	pf.StringVar(&globalFlags.DB, "db", "",
		"path of the local database (overrides env HWS_DB_PATH and config.json)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"HTTP request timeout (e.g. 30s, 2m)")
	pf.IntVar(&globalFlags.Concurrency, "concurrency", 0,
		"max parallel requests for batch operations (default: 4)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max feed requests per second (default: 5.0)")
	pf.IntVar(&globalFlags.Width, "width", 0,
		"chart width in characters (default: 72)")
	pf.IntVar(&globalFlags.Height, "height", 0,
		"chart body height in rows (default: 16)")
	pf.StringVar(&globalFlags.HControls, "hcontrols", "",
		"horizontal range controls: bottom|top|off")
	pf.StringVar(&globalFlags.VControls, "vcontrols", "",
		"vertical range controls: left|right|off")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log feed requests and chart data changes to stderr")
	pf.BoolVar(&globalFlags.Trace, "trace", false,
		"log every range listener invocation to stderr")
}
