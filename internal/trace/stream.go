package trace

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"
)

// StreamTracer renders events into a buffered writer as they arrive.
type StreamTracer struct {
	mu     sync.Mutex
	dst    io.Writer
	w      *bufio.Writer
	level  Level
	format Format
	start  time.Time
	seq    uint64
	line   []byte
}

// NewStreamTracer writes to w. Output is buffered until Flush or Close.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{
		dst:    w,
		w:      bufio.NewWriter(w),
		level:  level,
		format: format,
		start:  time.Now(),
	}
}

// Emit records ev when its scope passes the level. Failed span ends pass at
// every level above LevelOff.
func (t *StreamTracer) Emit(ev *Event) {
	if t.level == LevelOff || !(t.level.ShouldEmit(ev.Scope) || ev.Failed) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	ev.Seq = t.seq
	t.line = appendEvent(t.line[:0], ev, t.format, t.start)
	// трассировка не должна ронять форматирование
	_, _ = t.w.Write(t.line)
}

// Flush writes buffered events through.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

// Close flushes and closes the destination unless it is stdout or stderr.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if t.dst == os.Stdout || t.dst == os.Stderr {
		return nil
	}
	if c, ok := t.dst.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level { return t.level }

func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
