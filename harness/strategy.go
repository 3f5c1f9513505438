package harness

import (
	"fmt"
	"os"
	"strings"
)

// Strategy is one backup tool under benchmark. Prepare runs before the
// timed section; Command is what gets timed.
type Strategy interface {
	Name() string
	Prepare(target string) error
	Command(source, target string) Command
}

// Mirror is the direct mirroring strategy, rsync style: the source is
// copied into the target with trailing-slash semantics.
type Mirror struct {
	Label     string
	Binary    string
	ExtraArgs []string
}

// DefaultMirror returns `rsync -a`.
func DefaultMirror() *Mirror {
	return &Mirror{
		Label:     "rsync",
		Binary:    "rsync",
		ExtraArgs: []string{"-a"},
	}
}

func (m *Mirror) Name() string { return m.Label }

// Prepare makes sure the target exists.
func (m *Mirror) Prepare(target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create target %s: %w", target, err)
	}

	return nil
}

func (m *Mirror) Command(source, target string) Command {
	args := make([]string, 0, len(m.ExtraArgs)+2)
	args = append(args, m.ExtraArgs...)
	args = append(args, withSlash(source), withSlash(target))

	return Command{Path: m.Binary, Args: args}
}

// MarkerGated is a snapshotting strategy that refuses to write into a
// target lacking the backup marker.
type MarkerGated struct {
	Label     string
	Binary    string
	ExtraArgs []string
}

// DefaultMarkerGated returns the rsync-time-machine strategy.
func DefaultMarkerGated() *MarkerGated {
	return &MarkerGated{
		Label:  "rsync-time-machine",
		Binary: "rsync-time-machine",
	}
}

func (m *MarkerGated) Name() string { return m.Label }

// Prepare creates the target and installs the marker in it.
func (m *MarkerGated) Prepare(target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create target %s: %w", target, err)
	}

	if _, err := InstallMarker(target); err != nil {
		return err
	}

	return nil
}

func (m *MarkerGated) Command(source, target string) Command {
	args := make([]string, 0, len(m.ExtraArgs)+2)
	args = append(args, m.ExtraArgs...)
	args = append(args, source, target)

	return Command{Path: m.Binary, Args: args}
}

func withSlash(dir string) string {
	return strings.TrimRight(dir, "/") + "/"
}
