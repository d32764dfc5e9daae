package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"bueno/internal/format"
	"bueno/internal/trace"
)

// Dispatcher turns the text of a file with the given extension into a
// format result. *format.Dispatcher satisfies it.
type Dispatcher interface {
	Format(ctx context.Context, ext, text string) (format.Result, error)
}

// FormatOptions configures a batch run.
type FormatOptions struct {
	// Check reports changed files without writing them.
	Check      bool
	Dispatcher Dispatcher
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Out receives one "fmt: <path>" line per changed file. Defaults to stdout.
	Out io.Writer
	// Logger receives debug output.
	Logger *log.Logger
	// Warnings receives pattern-entry failures. Defaults to Logger.
	Warnings *log.Logger
	Progress ProgressSink
	// Cache, when set, skips files whose contents were already formatted
	// in an earlier run. The caller saves it.
	Cache *FormatCache
}

// FormatStats summarizes a batch run.
type FormatStats struct {
	// Matched counts regular files produced by the pattern.
	Matched int
	// Formatted counts files handed to the dispatcher.
	Formatted int
	// Changed counts files whose formatting differs, written or not.
	Changed     int
	EntryErrors int
	// Cached counts files skipped because Cache knew them as formatted.
	Cached int
}

// FormatGlob formats every regular file matched by pattern, one file at a
// time. Unsupported extensions are skipped without reading. Read, format
// and write failures stop the run; files written before the failure stay
// written.
func FormatGlob(ctx context.Context, pattern string, opts FormatOptions) (FormatStats, error) {
	var stats FormatStats
	if opts.Dispatcher == nil {
		return stats, fmt.Errorf("fmt: %w", format.ErrNoFormatter)
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	warnings := opts.Warnings
	if warnings == nil {
		warnings = logger
	}

	ctx, span := trace.StartSpan(ctx, trace.ScopeRun, "fmt")
	span.WithExtra("pattern", pattern)

	onEntryErr := func(path string, err error) {
		stats.EntryErrors++
		warnings.Warn("skipping pattern entry", "path", path, "err", err)
		trace.Point(trace.FromContext(ctx), trace.ScopeFile, "skip:"+path, err.Error(), trace.ParentID(ctx))
	}
	err := expand(fsys, pattern, onEntryErr, func(e entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Matched++
		return formatEntry(ctx, fsys, out, logger, opts, e, &stats)
	})
	if err != nil {
		span.Fail(err)
		return stats, err
	}
	span.WithExtra("changed", fmt.Sprint(stats.Changed))
	span.End("")
	return stats, nil
}

func formatEntry(ctx context.Context, fsys afero.Fs, out io.Writer, logger *log.Logger, opts FormatOptions, e entry, stats *FormatStats) (err error) {
	ext := format.ExtOf(e.path)
	lang, ok := format.LanguageForExt(ext)
	if !ok {
		logger.Debug("unsupported extension", "path", e.path)
		return nil
	}

	ctx, span := trace.StartSpan(ctx, trace.ScopeFile, "fmt:"+e.path)
	span.WithExtra("lang", lang.String())
	stage := StageRead
	started := time.Now()
	defer func() {
		if err != nil {
			span.Fail(err)
			emit(opts.Progress, Event{File: e.path, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(started)})
			return
		}
		span.End("")
	}()

	emit(opts.Progress, Event{File: e.path, Stage: StageRead, Status: StatusWorking})
	data, err := afero.ReadFile(fsys, e.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", e.path, err)
	}

	var sum Digest
	if opts.Cache != nil {
		sum = digestOf(data)
		if opts.Cache.Fresh(e.path, sum) {
			stats.Cached++
			span.WithExtra("cached", "true")
			emit(opts.Progress, Event{File: e.path, Stage: StageRead, Status: StatusSkipped, Elapsed: time.Since(started)})
			return nil
		}
	}

	stage = StageFormat
	emit(opts.Progress, Event{File: e.path, Stage: StageFormat, Status: StatusWorking})
	stats.Formatted++
	res, err := opts.Dispatcher.Format(ctx, ext, string(data))
	if err != nil {
		return fmt.Errorf("format %s: %w", e.path, err)
	}
	text, changed := res.Text()
	if !changed {
		if opts.Cache != nil {
			opts.Cache.Mark(e.path, sum)
		}
		emit(opts.Progress, Event{File: e.path, Stage: StageFormat, Status: StatusSkipped, Elapsed: time.Since(started)})
		return nil
	}

	stats.Changed++
	span.WithExtra("changed", "true")
	fmt.Fprintf(out, "fmt: %s\n", e.path)
	if opts.Check {
		opts.Cache.Forget(e.path)
		emit(opts.Progress, Event{File: e.path, Stage: StageFormat, Status: StatusDone, Elapsed: time.Since(started)})
		return nil
	}

	stage = StageWrite
	emit(opts.Progress, Event{File: e.path, Stage: StageWrite, Status: StatusWorking})
	if err := afero.WriteFile(fsys, e.path, []byte(text), e.info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}
	if opts.Cache != nil {
		opts.Cache.Mark(e.path, digestOf([]byte(text)))
	}
	emit(opts.Progress, Event{File: e.path, Stage: StageWrite, Status: StatusDone, Elapsed: time.Since(started)})
	return nil
}
