// Package report formats a benchmark comparison for the operator.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

const megabyte = 1 << 20

// labelWidth aligns the "=" column of the text report.
const labelWidth = 29

// Timing is the measured duration of one strategy.
type Timing struct {
	Name    string
	Elapsed time.Duration
}

// Comparison holds the three measurements of one benchmark run.
type Comparison struct {
	Files       int
	FileSize    int64
	Generate    time.Duration
	Mirror      Timing
	MarkerGated Timing
}

// Generate writes the three-line text report to w.
func Generate(w io.Writer, c Comparison) error {
	header := fmt.Sprintf("Creating files (%3d x %3d MB)",
		c.Files, c.FileSize/megabyte)

	lines := []struct {
		label   string
		elapsed time.Duration
	}{
		{header, c.Generate},
		{c.Mirror.Name, c.Mirror.Elapsed},
		{c.MarkerGated.Name, c.MarkerGated.Elapsed},
	}

	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-*s = %.2f seconds\n",
			labelWidth, l.label, l.elapsed.Seconds()); err != nil {
			return err
		}
	}

	return nil
}

type jsonTiming struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
}

type jsonComparison struct {
	Files           int          `json:"files"`
	FileSizeBytes   int64        `json:"file_size_bytes"`
	GenerateSeconds float64      `json:"generate_seconds"`
	Strategies      []jsonTiming `json:"strategies"`
}

// GenerateJSON writes the comparison as JSON to w.
func GenerateJSON(w io.Writer, c Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jsonComparison{
		Files:           c.Files,
		FileSizeBytes:   c.FileSize,
		GenerateSeconds: c.Generate.Seconds(),
		Strategies: []jsonTiming{
			{Name: c.Mirror.Name, Seconds: c.Mirror.Elapsed.Seconds()},
			{Name: c.MarkerGated.Name, Seconds: c.MarkerGated.Elapsed.Seconds()},
		},
	})
}
