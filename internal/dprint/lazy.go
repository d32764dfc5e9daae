package dprint

import (
	"context"
	"sync"

	"bueno/internal/format"
)

// Lazy is a format.Formatter whose plugin is loaded by the first Format
// call. A failed load is reported by that call and every later one.
type Lazy struct {
	load func(ctx context.Context) (*Plugin, error)

	mu     sync.Mutex
	done   bool
	plugin *Plugin
	err    error
}

// NewLazy wraps load. load runs at most once.
func NewLazy(load func(ctx context.Context) (*Plugin, error)) *Lazy {
	return &Lazy{load: load}
}

// Format implements format.Formatter.
func (l *Lazy) Format(ctx context.Context, ext, text string) (format.Result, error) {
	p, err := l.get(ctx)
	if err != nil {
		return format.NoChange(), err
	}
	return p.Format(ctx, ext, text)
}

// Loaded reports whether the plugin was loaded successfully.
func (l *Lazy) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done && l.err == nil
}

func (l *Lazy) get(ctx context.Context) (*Plugin, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.done {
		l.plugin, l.err = l.load(ctx)
		l.done = true
	}
	return l.plugin, l.err
}
