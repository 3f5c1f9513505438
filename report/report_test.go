package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func sample() Comparison {
	return Comparison{
		Files:       10,
		FileSize:    50 * megabyte,
		Generate:    1230 * time.Millisecond,
		Mirror:      Timing{Name: "rsync", Elapsed: 4560 * time.Millisecond},
		MarkerGated: Timing{Name: "rsync-time-machine", Elapsed: 7890 * time.Millisecond},
	}
}

func TestGenerate(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, sample()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := "Creating files ( 10 x  50 MB) = 1.23 seconds\n" +
		"rsync                         = 4.56 seconds\n" +
		"rsync-time-machine            = 7.89 seconds\n"

	if buf.String() != want {
		t.Errorf("report =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestGenerateTwoDecimals(t *testing.T) {
	c := sample()
	c.Generate = 0
	c.Mirror.Elapsed = 1234567 * time.Microsecond

	var buf bytes.Buffer
	if err := Generate(&buf, c); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "= 0.00 seconds") {
		t.Error("expected zero generation time rendered as 0.00")
	}
	if !strings.Contains(output, "= 1.23 seconds") {
		t.Error("expected 1.234567s rounded to 1.23")
	}
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateJSON(&buf, sample()); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var parsed jsonComparison
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if parsed.Files != 10 {
		t.Errorf("files = %d, want 10", parsed.Files)
	}
	if len(parsed.Strategies) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(parsed.Strategies))
	}
	if parsed.Strategies[1].Name != "rsync-time-machine" {
		t.Errorf("second strategy = %q, want rsync-time-machine",
			parsed.Strategies[1].Name)
	}
	if math.Abs(parsed.Strategies[0].Seconds-4.56) > 1e-9 {
		t.Errorf("rsync seconds = %v, want 4.56", parsed.Strategies[0].Seconds)
	}
}
