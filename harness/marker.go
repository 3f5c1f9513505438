package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// MarkerName is the file the marker-gated tool expects in its target.
	MarkerName = "backup.marker"
	// MarkerContents is written verbatim into the marker file.
	MarkerContents = "marker"
)

// ErrMarkerInstall marks a failure to write the precondition marker.
var ErrMarkerInstall = errors.New("marker install failed")

// InstallMarker writes the marker file into dir, creating dir if needed,
// and returns the marker's absolute path. An existing marker is overwritten.
func InstallMarker(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", ErrMarkerInstall, dir, err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrMarkerInstall, abs, err)
	}

	path := filepath.Join(abs, MarkerName)

	if err := os.WriteFile(path, []byte(MarkerContents), 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", ErrMarkerInstall, path, err)
	}

	return path, nil
}
