// Package harness runs the external backup tools under benchmark. It knows
// how to launch a command, time it, and satisfy the marker precondition of
// the marker-gated strategy; it has no view of what the tools do.
package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// stderrTail bounds how much child stderr is kept for error messages.
const stderrTail = 4096

// Command is a fully resolved external invocation.
type Command struct {
	Path string
	Args []string
}

// Argv returns the command line as a slice.
func (c Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// ExternalOperationError is returned when an external command exits
// non-zero or cannot be started. ExitCode is -1 for launch failures.
type ExternalOperationError struct {
	Command  []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalOperationError) Error() string {
	msg := fmt.Sprintf("command %q failed", strings.Join(e.Command, " "))
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" with exit status %d", e.ExitCode)
	} else {
		msg += ": " + e.Err.Error()
	}

	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}

	return msg
}

func (e *ExternalOperationError) Unwrap() error { return e.Err }

// Invoker launches commands and measures how long they take.
type Invoker struct {
	// Output receives the child's stdout and stderr. Nil discards them.
	Output io.Writer
	Logger *slog.Logger
}

// NewInvoker creates an Invoker streaming child output to out.
func NewInvoker(out io.Writer, logger *slog.Logger) *Invoker {
	return &Invoker{
		Output: out,
		Logger: logger,
	}
}

// Time runs cmd to completion and returns its wall-clock duration.
// On failure no duration is reported; the command is never retried.
func (i *Invoker) Time(ctx context.Context, cmd Command) (time.Duration, error) {
	out := i.Output
	if out == nil {
		out = io.Discard
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)

	// os/exec copies stdout and stderr on separate goroutines.
	shared := &syncWriter{w: out}

	var stderr tailBuffer
	c.Stdout = shared
	c.Stderr = io.MultiWriter(shared, &stderr)

	i.Logger.DebugContext(ctx, "starting command",
		slog.String("command", cmd.String()),
	)

	start := time.Now()

	if err := c.Run(); err != nil {
		return 0, newExternalOperationError(cmd, err, stderr.String())
	}

	elapsed := time.Since(start)

	i.Logger.DebugContext(ctx, "command finished",
		slog.String("command", cmd.String()),
		slog.Duration("wall_time", elapsed),
	)

	return elapsed, nil
}

func newExternalOperationError(cmd Command, err error, stderr string) error {
	code := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}

	return &ExternalOperationError{
		Command:  cmd.Argv(),
		ExitCode: code,
		Stderr:   strings.TrimSpace(stderr),
		Err:      err,
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)

	if extra := t.buf.Len() - stderrTail; extra > 0 {
		t.buf.Next(extra)
	}

	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
