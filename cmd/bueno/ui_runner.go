package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"bueno/internal/driver"
	"bueno/internal/ui"
)

type formatOutcome struct {
	stats driver.FormatStats
	err   error
}

// runFormatWithUI runs the batch behind the progress UI. Each "fmt:" line is
// printed above the rendered frame before its file is written. Log records
// are held back until the UI exits so they do not tear the frame.
func runFormatWithUI(ctx context.Context, pattern string, opts driver.FormatOptions) (driver.FormatStats, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	var logBuf bytes.Buffer
	if opts.Logger != nil {
		opts.Logger = opts.Logger.With()
		opts.Logger.SetOutput(&logBuf)
	} else {
		opts.Logger = log.New(&logBuf)
	}
	if opts.Warnings != nil {
		opts.Warnings = opts.Warnings.With()
		opts.Warnings.SetOutput(&logBuf)
	}
	defer func() { _, _ = io.Copy(os.Stderr, &logBuf) }()

	events := make(chan driver.Event, 256)
	model := ui.NewProgressModel("bueno fmt", events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	lines := &uiLineWriter{prog: program, out: out, exited: make(chan struct{})}
	opts.Out = lines

	outcomeCh := make(chan formatOutcome, 1)
	go func() {
		reqOpts := opts
		reqOpts.Progress = driver.ChannelSink{Ch: events}
		stats, err := driver.FormatGlob(ctx, pattern, reqOpts)
		outcomeCh <- formatOutcome{stats: stats, err: err}
		close(events)
	}()

	_, uiErr := program.Run()
	close(lines.exited)
	// the UI may exit early; keep the driver unblocked
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.stats, uiErr
	}
	return outcome.stats, outcome.err
}

// uiLineWriter prints lines above the progress frame while the program runs
// and straight to out once it has exited.
type uiLineWriter struct {
	prog   *tea.Program
	out    io.Writer
	exited chan struct{}
}

func (w *uiLineWriter) Write(b []byte) (int, error) {
	select {
	case <-w.exited:
		return w.out.Write(b)
	default:
	}
	printed := make(chan struct{})
	go func() {
		// Println blocks until the event loop takes the line
		w.prog.Println(strings.TrimSuffix(string(b), "\n"))
		close(printed)
	}()
	select {
	case <-printed:
		return len(b), nil
	case <-w.exited:
		return w.out.Write(b)
	}
}
