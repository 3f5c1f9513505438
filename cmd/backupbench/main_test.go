package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stubConfig = `
mirror:
  binary: sh
  args: ["-c", "cp -R \"$1.\" \"$2\"", "sh"]
marker_gated:
  binary: sh
  args: ["-c", "test -f \"$2/backup.marker\" && cp -R \"$1/.\" \"$2/\"", "sh"]
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	root := newRootCmd(slog.New(slog.NewTextHandler(io.Discard, nil)), new(slog.LevelVar))
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.Execute()

	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestRootCommandReport(t *testing.T) {
	tmp := t.TempDir()

	out, err := execute(t,
		"--config", writeConfig(t, stubConfig),
		"--files", "3",
		"--megabytes", "1",
		"--tmp-dir", tmp,
	)
	require.NoError(t, err)

	want := regexp.MustCompile(`^Creating files \(  3 x   1 MB\) = \d+\.\d{2} seconds
rsync                         = \d+\.\d{2} seconds
rsync-time-machine            = \d+\.\d{2} seconds
$`)
	assert.Regexp(t, want, out)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRootCommandJSON(t *testing.T) {
	out, err := execute(t,
		"--config", writeConfig(t, stubConfig),
		"--files", "1",
		"--megabytes", "0",
		"--tmp-dir", t.TempDir(),
		"--json",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"generate_seconds"`)
	assert.Contains(t, out, `"rsync-time-machine"`)
}

func TestRootCommandFailureExitCode(t *testing.T) {
	cfg := `
mirror:
  binary: sh
  args: ["-c", "exit 4", "sh"]
`
	tmp := t.TempDir()

	out, err := execute(t,
		"--config", writeConfig(t, cfg),
		"--files", "1",
		"--megabytes", "0",
		"--tmp-dir", tmp,
	)
	require.Error(t, err)
	assert.Empty(t, out, "no partial report on failure")
	assert.Equal(t, 4, exitCode(err))
	assert.Contains(t, err.Error(), "run rsync")

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRootCommandRejectsArgs(t *testing.T) {
	_, err := execute(t, "extra")
	assert.Error(t, err)
}

func TestRootCommandInvalidFlags(t *testing.T) {
	_, err := execute(t, "--files=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("plain")))
}
