// Package scenario runs one benchmark comparison: it generates the
// workload, times both strategies against it and assembles the report.
// Every run owns three fresh working directories that are removed on
// every exit path.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/weiihann/backupbench/harness"
	"github.com/weiihann/backupbench/report"
	"github.com/weiihann/backupbench/workload"
)

// ErrDirectoryLifecycle marks a working directory that could not be
// created or removed.
var ErrDirectoryLifecycle = errors.New("working directory lifecycle")

// Working directory name prefixes.
const (
	SourcePrefix      = "bench_src_"
	MirrorPrefix      = "bench_rsync_"
	MarkerGatedPrefix = "bench_my_"
)

// Config describes one comparison run.
type Config struct {
	Workload    workload.Config
	Mirror      harness.Strategy
	MarkerGated harness.Strategy
	// TempRoot is where working directories are created. Empty means
	// the system temp directory.
	TempRoot string
}

// Runner executes comparison runs. It keeps no state between runs.
type Runner struct {
	cfg     Config
	invoker *harness.Invoker
	logger  *slog.Logger
}

// NewRunner creates a Runner that times strategies with invoker.
func NewRunner(cfg Config, invoker *harness.Invoker, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		invoker: invoker,
		logger:  logger,
	}
}

// Run performs generate, strategy A, strategy B in order and stops at the
// first failure. Working directories are removed before Run returns.
func (r *Runner) Run(ctx context.Context) (report.Comparison, error) {
	var cmp report.Comparison

	if err := r.validate(); err != nil {
		return cmp, err
	}

	logger := r.logger.With(slog.String("run", ulid.Make().String()))

	dirs, err := acquire(r.cfg.TempRoot)
	if err != nil {
		return cmp, err
	}
	defer dirs.release(ctx, logger)

	logger.DebugContext(ctx, "working directories ready",
		slog.String("source", dirs.source),
		slog.String("mirror_target", dirs.mirror),
		slog.String("marker_gated_target", dirs.markerGated),
	)

	summary, err := workload.NewGenerator(r.cfg.Workload).Generate(dirs.source)
	if err != nil {
		return cmp, fmt.Errorf("create files: %w", err)
	}

	logger.InfoContext(ctx, "workload generated",
		slog.Int("files", summary.Files),
		slog.String("size", humanize.IBytes(uint64(summary.TotalBytes))),
		slog.Duration("elapsed", summary.Elapsed),
	)

	mirror, err := r.runStrategy(ctx, logger, r.cfg.Mirror, dirs.source, dirs.mirror)
	if err != nil {
		return cmp, err
	}

	gated, err := r.runStrategy(ctx, logger, r.cfg.MarkerGated, dirs.source, dirs.markerGated)
	if err != nil {
		return cmp, err
	}

	return report.Comparison{
		Files:       r.cfg.Workload.Files,
		FileSize:    r.cfg.Workload.FileSize,
		Generate:    summary.Elapsed,
		Mirror:      mirror,
		MarkerGated: gated,
	}, nil
}

func (r *Runner) validate() error {
	if err := r.cfg.Workload.Validate(); err != nil {
		return fmt.Errorf("invalid workload: %w", err)
	}
	if r.cfg.Mirror == nil || r.cfg.MarkerGated == nil {
		return errors.New("both strategies must be configured")
	}

	return nil
}

// runStrategy prepares target untimed, then times the strategy's command.
func (r *Runner) runStrategy(
	ctx context.Context,
	logger *slog.Logger,
	s harness.Strategy,
	source, target string,
) (report.Timing, error) {
	if err := s.Prepare(target); err != nil {
		return report.Timing{}, fmt.Errorf("prepare %s: %w", s.Name(), err)
	}

	elapsed, err := r.invoker.Time(ctx, s.Command(source, target))
	if err != nil {
		return report.Timing{}, fmt.Errorf("run %s: %w", s.Name(), err)
	}

	logger.InfoContext(ctx, "strategy finished",
		slog.String("strategy", s.Name()),
		slog.Duration("elapsed", elapsed),
	)

	return report.Timing{Name: s.Name(), Elapsed: elapsed}, nil
}

type workdirs struct {
	source      string
	mirror      string
	markerGated string
}

func acquire(root string) (*workdirs, error) {
	prefixes := []string{SourcePrefix, MirrorPrefix, MarkerGatedPrefix}
	paths := make([]string, 0, len(prefixes))

	for _, prefix := range prefixes {
		dir, err := os.MkdirTemp(root, prefix)
		if err != nil {
			for _, p := range paths {
				os.RemoveAll(p)
			}

			return nil, fmt.Errorf("%w: create %s dir: %w",
				ErrDirectoryLifecycle, prefix, err)
		}

		paths = append(paths, dir)
	}

	return &workdirs{
		source:      paths[0],
		mirror:      paths[1],
		markerGated: paths[2],
	}, nil
}

// release removes all working directories. Failures are only logged.
func (w *workdirs) release(ctx context.Context, logger *slog.Logger) {
	for _, dir := range []string{w.source, w.mirror, w.markerGated} {
		if err := os.RemoveAll(dir); err != nil {
			err = fmt.Errorf("%w: remove %s: %w", ErrDirectoryLifecycle, dir, err)
			logger.WarnContext(ctx, "failed to remove working directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
		}
	}
}
