// Package workload generates the synthetic file set both backup strategies
// are benchmarked against. Only the shape (file count and size) is fixed;
// the content is random and need not be reproducible.
package workload

import (
	"errors"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"time"
)

// ErrGeneration marks a filesystem failure while creating the workload.
var ErrGeneration = errors.New("workload generation failed")

// chunkSize bounds the write buffer so large files are not held in memory.
const chunkSize = 1 << 20

// Config describes the dataset shape.
type Config struct {
	Files    int
	FileSize int64
	Seed     int64
}

// Summary reports what a Generate call produced.
type Summary struct {
	Files      int
	TotalBytes int64
	Elapsed    time.Duration
}

// Generator writes Config.Files files of Config.FileSize random bytes.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Validate reports whether the config describes a buildable dataset.
func (c Config) Validate() error {
	if c.Files < 0 {
		return fmt.Errorf("file count must be >= 0, got %d", c.Files)
	}
	if c.FileSize < 0 {
		return fmt.Errorf("file size must be >= 0, got %d", c.FileSize)
	}

	return nil
}

// FileName returns the name of the i-th generated file.
func FileName(i int) string {
	return fmt.Sprintf("file_%d.dat", i)
}

// Generate creates dir (and its parents) and fills it with the workload.
// The elapsed time covers directory creation through the last fsync.
// A failure may leave a partial set of files behind.
func (g *Generator) Generate(dir string) (Summary, error) {
	var summary Summary

	if err := g.cfg.Validate(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	start := time.Now()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return summary, fmt.Errorf("%w: create %s: %w", ErrGeneration, dir, err)
	}

	buf := make([]byte, min(g.cfg.FileSize, chunkSize))

	for i := 0; i < g.cfg.Files; i++ {
		path := filepath.Join(dir, FileName(i))

		if err := g.writeFile(path, buf); err != nil {
			return summary, fmt.Errorf("%w: write %s: %w", ErrGeneration, path, err)
		}

		summary.Files++
		summary.TotalBytes += g.cfg.FileSize
	}

	summary.Elapsed = time.Since(start)

	return summary, nil
}

func (g *Generator) writeFile(path string, buf []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	for remaining := g.cfg.FileSize; remaining > 0; {
		n := min(remaining, int64(len(buf)))
		g.rng.Read(buf[:n])

		if _, err := f.Write(buf[:n]); err != nil {
			f.Close()
			return err
		}

		remaining -= n
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
