package format

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Options controls how a Writer lays out text.
type Options struct {
	LineWidth int
}

func (o Options) withDefaults() Options {
	if o.LineWidth <= 0 {
		o.LineWidth = 80
	}
	return o
}

// Writer accumulates formatted output, copies untouched source ranges and
// tracks the display column of the current line.
type Writer struct {
	src         string
	opt         Options
	buf         strings.Builder
	col         int
	atLineStart bool
}

// NewWriter creates a writer over src.
func NewWriter(src string, opt Options) *Writer {
	w := &Writer{
		src:         src,
		opt:         opt.withDefaults(),
		atLineStart: true,
	}
	w.buf.Grow(len(src))
	return w
}

// String returns the accumulated output.
func (w *Writer) String() string {
	return w.buf.String()
}

// Column returns the display width of the current line.
func (w *Writer) Column() int {
	return w.col
}

// AtLineStart reports whether nothing was written since the last newline.
func (w *Writer) AtLineStart() bool {
	return w.atLineStart
}

// WriteString writes s and updates the column.
func (w *Writer) WriteString(s string) {
	if s == "" {
		return
	}
	w.buf.WriteString(s)
	w.advance(s)
}

func (w *Writer) advance(s string) {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
		w.col = 0
		w.atLineStart = s == ""
	} else {
		w.atLineStart = false
	}
	w.col += runewidth.StringWidth(s)
}

// Space writes a single space unless the line is empty or already ends with whitespace.
func (w *Writer) Space() {
	if w.atLineStart || w.buf.Len() == 0 {
		return
	}
	out := w.buf.String()
	if last := out[len(out)-1]; last == ' ' || last == '\t' {
		return
	}
	w.buf.WriteByte(' ')
	w.col++
}

// Newline terminates the current line.
func (w *Writer) Newline() {
	w.buf.WriteByte('\n')
	w.col = 0
	w.atLineStart = true
}

// Fits reports whether a space plus word still fits on the current line.
func (w *Writer) Fits(word string) bool {
	if w.atLineStart {
		return true
	}
	return w.col+1+runewidth.StringWidth(word) <= w.opt.LineWidth
}

// CopyRange copies src[start:end] verbatim, clamping out-of-range bounds.
func (w *Writer) CopyRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(w.src) {
		end = len(w.src)
	}
	if start >= end {
		return
	}
	chunk := w.src[start:end]
	w.buf.WriteString(chunk)
	w.advance(chunk)
}

// Finish trims trailing blank lines and returns the output with exactly one
// trailing newline, or an empty string for blank output.
func (w *Writer) Finish() string {
	out := strings.TrimRight(w.buf.String(), " \t\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}
