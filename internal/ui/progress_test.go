package ui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"bueno/internal/driver"
)

func feed(m *progressModel, events ...driver.Event) {
	for _, ev := range events {
		m.Update(eventMsg(ev))
	}
}

func TestProgressCountsFinishedFiles(t *testing.T) {
	m := NewProgressModel("fmt", nil).(*progressModel)
	feed(m,
		driver.Event{File: "a.ts", Stage: driver.StageRead, Status: driver.StatusWorking},
		driver.Event{File: "a.ts", Stage: driver.StageFormat, Status: driver.StatusWorking},
		driver.Event{File: "a.ts", Stage: driver.StageWrite, Status: driver.StatusWorking},
		driver.Event{File: "a.ts", Stage: driver.StageWrite, Status: driver.StatusDone},
		driver.Event{File: "b.json", Stage: driver.StageRead, Status: driver.StatusWorking},
		driver.Event{File: "b.json", Stage: driver.StageFormat, Status: driver.StatusSkipped},
		driver.Event{File: "c.md", Stage: driver.StageRead, Status: driver.StatusWorking},
	)

	if m.finished != 2 || m.changed != 1 {
		t.Fatalf("finished=%d changed=%d, want 2 and 1", m.finished, m.changed)
	}
	if got, want := m.percent(), (2+0.1)/3; math.Abs(got-want) > 1e-9 {
		t.Fatalf("percent = %v, want %v", got, want)
	}

	view := m.View()
	for _, want := range []string{"(2/3, 1 changed)", "written", "unchanged", "reading", "c.md"} {
		if !strings.Contains(view, want) {
			t.Errorf("view misses %q:\n%s", want, view)
		}
	}
}

func TestProgressMarksErrors(t *testing.T) {
	m := NewProgressModel("fmt", nil).(*progressModel)
	feed(m, driver.Event{File: "a.json", Stage: driver.StageFormat, Status: driver.StatusError, Err: errors.New("bad")})
	if !m.failed || m.items[0].status != "error" {
		t.Fatalf("error not recorded: %+v", m.items)
	}
}

func TestProgressScrollsLongRuns(t *testing.T) {
	m := NewProgressModel("fmt", nil).(*progressModel)
	for i := range maxVisible + 3 {
		feed(m, driver.Event{File: fmt.Sprintf("f%02d.json", i), Stage: driver.StageFormat, Status: driver.StatusSkipped})
	}
	view := m.View()
	if !strings.Contains(view, "+3 more") {
		t.Fatalf("missing overflow marker:\n%s", view)
	}
	if strings.Contains(view, "f00.json") || !strings.Contains(view, "f14.json") {
		t.Fatalf("unexpected rows:\n%s", view)
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	ch := make(chan driver.Event)
	close(ch)
	m := NewProgressModel("fmt", ch).(*progressModel)
	if msg := m.listenForEvent()(); msg != (doneMsg{}) {
		t.Fatalf("want doneMsg, got %T", msg)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		value string
		width int
		want  string
	}{
		{"abcdefghij", 6, "abc..."},
		{"abcdefghij", 10, "abcdefghij"},
		{"abc", 10, "abc"},
		{"abcdefghij", 3, "abc"},
		{"日本語テキスト", 9, "日本語..."},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.value, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
		}
	}
}
