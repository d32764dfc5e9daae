package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // only failed spans
	LevelPhase               // run boundaries
	LevelDetail              // per-file events
	LevelDebug               // everything including code blocks
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by String, in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// maxScope is the finest scope a level lets through; 0 means none.
func (l Level) maxScope() Scope {
	switch l {
	case LevelPhase:
		return ScopeRun
	case LevelDetail:
		return ScopeFile
	case LevelDebug:
		return ScopeBlock
	default:
		return 0
	}
}

// ShouldEmit reports whether events of scope pass at this level. Failed
// spans are let through by the tracer itself.
func (l Level) ShouldEmit(scope Scope) bool {
	return scope <= l.maxScope()
}
