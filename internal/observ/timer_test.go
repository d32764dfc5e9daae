package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	cfg := tm.Begin("config")
	tm.End(cfg, "bueno.toml")
	fmtIdx := tm.Begin("format")
	tm.EndCount(fmtIdx, "", 3)

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("want 2 phases, got %d", len(report.Phases))
	}
	if got := report.Phases[0]; got.Name != "config" || got.Note != "bueno.toml" {
		t.Fatalf("unexpected first phase: %+v", got)
	}
	if got := report.Phases[1].Count; got != 3 {
		t.Fatalf("want count 3, got %d", got)
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Fatalf("total %f is smaller than a phase", report.TotalMS)
	}
}

func TestTimerIgnoresUnknownIndex(t *testing.T) {
	tm := NewTimer()
	tm.End(5, "nope")
	tm.End(-1, "nope")
	if got := tm.Report(); len(got.Phases) != 0 || got.TotalMS != 0 {
		t.Fatalf("want empty report, got %+v", got)
	}
}

func TestTimerMeasure(t *testing.T) {
	tm := NewTimer()
	boom := errors.New("boom")
	if err := tm.Measure("plugins", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	summary := tm.Summary()
	if !strings.Contains(summary, "plugins") || !strings.Contains(summary, "// failed") {
		t.Fatalf("summary misses the failed phase:\n%s", summary)
	}
	if !strings.HasSuffix(summary, "ms\n") || !strings.Contains(summary, "total") {
		t.Fatalf("summary misses the total line:\n%s", summary)
	}
}
