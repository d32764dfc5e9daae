package trace

import "time"

// Kind says whether an event opens a span, closes it or stands alone.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Coarser scopes have lower values.
type Scope uint8

const (
	// ScopeRun covers whole-command phases.
	ScopeRun Scope = iota + 1
	// ScopeFile covers one matched file.
	ScopeFile
	// ScopeBlock covers one embedded code block.
	ScopeBlock
)

func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopeFile:
		return "file"
	case ScopeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Event is one record of the trace. Seq is assigned by the tracer.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64            // 0 for top-level spans
	Name     string            // "fmt", "fmt:src/a.ts", "block:json"
	Detail   string            // end reason or point message
	Dur      time.Duration     // span length, end events only
	Failed   bool              // span ended with an error
	Extra    map[string]string // attached with Span.WithExtra
}
