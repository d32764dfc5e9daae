package driver

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"bueno/internal/format"
)

func TestFingerprintSeparatesParts(t *testing.T) {
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Fatal("fingerprints collide across part boundaries")
	}
	if Fingerprint("x") != Fingerprint("x") {
		t.Fatal("fingerprint is not deterministic")
	}
}

func TestFormatCacheRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	fp := Fingerprint("v1")
	c, err := OpenFormatCache(fsys, "/cache/fmt.mp", fp)
	if err != nil {
		t.Fatal(err)
	}
	sum := digestOf([]byte("x"))
	c.Mark("/proj/a.json", sum)
	c.Mark("/proj/b.json", sum)
	c.Forget("/proj/b.json")
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	again, err := OpenFormatCache(fsys, "/cache/fmt.mp", fp)
	if err != nil {
		t.Fatal(err)
	}
	if again.Len() != 1 || !again.Fresh("/proj/a.json", sum) {
		t.Fatalf("cache did not survive a round trip: len=%d", again.Len())
	}
	if again.Fresh("/proj/a.json", digestOf([]byte("y"))) {
		t.Fatal("stale digest reported fresh")
	}

	other, err := OpenFormatCache(fsys, "/cache/fmt.mp", Fingerprint("v2"))
	if err != nil {
		t.Fatal(err)
	}
	if other.Len() != 0 {
		t.Fatal("entries leaked across fingerprints")
	}
}

func TestFormatCacheIgnoresGarbage(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/cache/fmt.mp", []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := OpenFormatCache(fsys, "/cache/fmt.mp", Fingerprint("v1"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Fatal("garbage produced entries")
	}
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFormatCache(fsys, "/cache/fmt.mp", Fingerprint("v1")); err != nil {
		t.Fatal(err)
	}
}

// countingFormatter counts dispatches.
type countingFormatter struct {
	inner format.Formatter
	calls int
}

func (c *countingFormatter) Format(ctx context.Context, ext, text string) (format.Result, error) {
	c.calls++
	return c.inner.Format(ctx, ext, text)
}

func TestFormatGlobSkipsCachedFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"/proj/a.json": minJSON,
		"/proj/b.json": prettyJSON,
	})
	counter := &countingFormatter{inner: newDispatcher()}
	cache, err := OpenFormatCache(fsys, "/proj/.bueno/fmt.mp", Fingerprint("test"))
	if err != nil {
		t.Fatal(err)
	}
	runOnce := func(check bool) FormatStats {
		t.Helper()
		stats, err := FormatGlob(context.Background(), "/proj/*.json", FormatOptions{
			Check:      check,
			Dispatcher: counter,
			Fs:         fsys,
			Out:        &bytes.Buffer{},
			Logger:     log.New(&bytes.Buffer{}),
			Cache:      cache,
		})
		if err != nil {
			t.Fatal(err)
		}
		return stats
	}

	first := runOnce(false)
	if first.Formatted != 2 || first.Cached != 0 || cache.Len() != 2 {
		t.Fatalf("first run: %+v, cache %d", first, cache.Len())
	}
	second := runOnce(false)
	if second.Cached != 2 || second.Formatted != 0 || counter.calls != 2 {
		t.Fatalf("second run: %+v, calls %d", second, counter.calls)
	}

	writeFiles(t, fsys, map[string]string{"/proj/a.json": minJSON})
	third := runOnce(true)
	if third.Formatted != 1 || third.Changed != 1 || third.Cached != 1 {
		t.Fatalf("third run: %+v", third)
	}
	if cache.Fresh("/proj/a.json", digestOf([]byte(minJSON))) {
		t.Fatal("check mode left an unformatted file marked fresh")
	}
}
