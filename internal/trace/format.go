package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Format selects how events are rendered.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // human-readable, indented by scope
	FormatNDJSON               // one JSON object per line
)

// formatFor picks NDJSON for *.ndjson and *.jsonl outputs, text otherwise.
func formatFor(path string) Format {
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl") {
		return FormatNDJSON
	}
	return FormatText
}

type jsonEvent struct {
	Seq      uint64            `json:"seq"`
	AtMs     float64           `json:"t_ms"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	DurMs    float64           `json:"dur_ms,omitempty"`
	Failed   bool              `json:"failed,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// appendEvent renders ev onto dst. start anchors relative timestamps.
func appendEvent(dst []byte, ev *Event, f Format, start time.Time) []byte {
	if f == FormatNDJSON {
		data, err := json.Marshal(jsonEvent{
			Seq:      ev.Seq,
			AtMs:     ms(ev.Time.Sub(start)),
			Kind:     ev.Kind.String(),
			Scope:    ev.Scope.String(),
			SpanID:   ev.SpanID,
			ParentID: ev.ParentID,
			Name:     ev.Name,
			Detail:   ev.Detail,
			DurMs:    ms(ev.Dur),
			Failed:   ev.Failed,
			Extra:    ev.Extra,
		})
		if err != nil {
			return dst
		}
		return append(append(dst, data...), '\n')
	}
	return appendText(dst, ev, start)
}

// appendText: [elapsed] indent →/←/• name FAILED (detail) [dur] {k=v}
func appendText(dst []byte, ev *Event, start time.Time) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%9.3fms] ", ms(ev.Time.Sub(start)))
	if ev.Scope > ScopeRun {
		sb.WriteString(strings.Repeat("  ", int(ev.Scope-ScopeRun)))
	}
	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ")
	case KindSpanEnd:
		sb.WriteString("← ")
	default:
		sb.WriteString("• ")
	}
	sb.WriteString(ev.Name)
	if ev.Failed {
		sb.WriteString(" FAILED")
	}
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", ev.Detail)
	}
	if ev.Kind == KindSpanEnd {
		fmt.Fprintf(&sb, " [%.3fms]", ms(ev.Dur))
	}
	if len(ev.Extra) > 0 {
		sb.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k + "=" + ev.Extra[k])
		}
		sb.WriteString("}")
	}
	sb.WriteByte('\n')
	return append(dst, sb.String()...)
}
