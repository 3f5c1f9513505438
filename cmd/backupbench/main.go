// Package main provides the CLI entry point for backupbench, which times
// a plain rsync mirror against rsync-time-machine on the same synthetic
// file set.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/weiihann/backupbench/config"
	"github.com/weiihann/backupbench/harness"
	"github.com/weiihann/backupbench/report"
	"github.com/weiihann/backupbench/scenario"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	root := newRootCmd(logger, level)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode propagates a failing tool's exit status, or 1.
func exitCode(err error) int {
	var opErr *harness.ExternalOperationError
	if errors.As(err, &opErr) && opErr.ExitCode > 0 {
		return opErr.ExitCode
	}

	return 1
}

type options struct {
	configPath  string
	files       int
	megabytes   int64
	seed        int64
	mirror      string
	timeMachine string
	tmpDir      string
	outputJSON  bool
	verbose     bool
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "backupbench",
		Short: "Compare rsync against rsync-time-machine",
		Long: `Backupbench creates a set of random files in a temporary directory,
mirrors it once with rsync and once with rsync-time-machine, and prints how long
each step took. All temporary directories are removed afterwards.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.verbose {
				level.Set(slog.LevelDebug)
			}

			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), cmd.OutOrStdout(),
				cmd.ErrOrStderr(), logger, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "",
		"Path to a YAML config file")
	flags.IntVar(&opts.files, "files", 10,
		"Number of files to create")
	flags.Int64Var(&opts.megabytes, "megabytes", 50,
		"Size of each file in MB")
	flags.Int64Var(&opts.seed, "seed", 0,
		"Random seed for file contents (0 = use current time)")
	flags.StringVar(&opts.mirror, "mirror", "rsync",
		"rsync binary used for the direct mirror")
	flags.StringVar(&opts.timeMachine, "time-machine", "rsync-time-machine",
		"Binary used for the marker-gated mirror")
	flags.StringVar(&opts.tmpDir, "tmp-dir", "",
		"Parent directory for working directories (default: system temp)")
	flags.BoolVar(&opts.outputJSON, "json", false,
		"Output results as JSON instead of text")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable debug logging")

	return cmd
}

// resolveConfig layers explicitly set flags over the config file, which
// in turn sits over the defaults.
func resolveConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg := config.Default()

	if opts.configPath != "" {
		var err error

		cfg, err = config.LoadFile(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("files") {
		cfg.Files = opts.files
	}
	if flags.Changed("megabytes") {
		cfg.Megabytes = opts.megabytes
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if flags.Changed("mirror") {
		cfg.Mirror.Binary = opts.mirror
	}
	if flags.Changed("time-machine") {
		cfg.MarkerGated.Binary = opts.timeMachine
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func runBenchmark(
	ctx context.Context,
	stdout, stderr io.Writer,
	logger *slog.Logger,
	cfg config.Config,
	opts options,
) error {
	wl := cfg.Workload()
	if wl.Seed == 0 {
		wl.Seed = time.Now().UnixNano()
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.Int("files", wl.Files),
		slog.String("file_size", humanize.IBytes(uint64(wl.FileSize))),
		slog.Int64("seed", wl.Seed),
	)

	runner := scenario.NewRunner(scenario.Config{
		Workload:    wl,
		Mirror:      cfg.MirrorStrategy(),
		MarkerGated: cfg.MarkerGatedStrategy(),
		TempRoot:    opts.tmpDir,
	}, harness.NewInvoker(stderr, logger), logger)

	cmp, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if opts.outputJSON {
		if err := report.GenerateJSON(stdout, cmp); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(stdout, cmp); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}
