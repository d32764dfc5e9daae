package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// entry is one matched path. It lives for a single iteration of the batch.
type entry struct {
	path string
	info fs.FileInfo
}

// entryErrorFunc receives per-entry expansion failures.
type entryErrorFunc func(path string, err error)

// reportingFS surfaces ReadDir failures that doublestar would otherwise
// swallow silently. A "**" segment lists some directories twice, so each
// failing directory is reported once.
type reportingFS struct {
	fs.FS
	report   entryErrorFunc
	reported map[string]bool
}

func (r reportingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(r.FS, name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) && !r.reported[name] {
		r.reported[name] = true
		r.report(name, err)
	}
	return entries, err
}

func (r reportingFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(r.FS, name)
}

// expand walks every regular file matched by pattern in lexical directory
// order. Entries that cannot be resolved go to onEntryErr and are skipped.
// A malformed pattern or an error returned by fn stops the walk.
func expand(fsys afero.Fs, pattern string, onEntryErr entryErrorFunc, fn func(entry) error) error {
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if !doublestar.ValidatePattern(rest) {
		return fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}
	// BasePathFs only confines names under an absolute base.
	abs, err := filepath.Abs(filepath.FromSlash(base))
	if err != nil {
		return err
	}
	display := func(p string) string {
		return filepath.Join(filepath.FromSlash(base), filepath.FromSlash(p))
	}
	root := reportingFS{
		FS: afero.NewIOFS(afero.NewBasePathFs(fsys, abs)),
		report: func(p string, err error) {
			onEntryErr(display(p), err)
		},
		reported: make(map[string]bool),
	}

	walk := func(p string, d fs.DirEntry) error {
		name := display(p)
		var (
			info fs.FileInfo
			err  error
		)
		if d.Type()&fs.ModeSymlink != 0 {
			info, err = fs.Stat(root, p)
		} else {
			info, err = d.Info()
		}
		if err != nil {
			onEntryErr(name, err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return fn(entry{path: name, info: info})
	}

	if err := doublestar.GlobWalk(root, rest, walk); err != nil {
		if errors.Is(err, doublestar.ErrBadPattern) {
			return fmt.Errorf("%w: %q", err, pattern)
		}
		return err
	}
	return nil
}
