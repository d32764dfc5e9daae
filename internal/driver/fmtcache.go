package driver

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"
)

// cacheSchema is bumped whenever cachePayload changes shape.
const cacheSchema uint16 = 1

// Digest is a SHA-256 of file contents.
type Digest [sha256.Size]byte

func digestOf(data []byte) Digest { return sha256.Sum256(data) }

// Fingerprint hashes everything that influences formatter output: tool
// version, capabilities, configuration. Parts are length-prefixed so that
// ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...string) Digest {
	h := sha256.New()
	for _, p := range parts {
		_, _ = fmt.Fprintf(h, "%d:%s", len(p), p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

type cachePayload struct {
	Schema      uint16            `msgpack:"schema"`
	Fingerprint Digest            `msgpack:"fingerprint"`
	Entries     map[string]Digest `msgpack:"entries"`
}

// FormatCache remembers the digests of files already known to be formatted
// under one fingerprint, so later runs skip them without dispatching.
// Safe for concurrent use.
type FormatCache struct {
	fs          afero.Fs
	path        string
	fingerprint Digest

	mu      sync.Mutex
	entries map[string]Digest
	dirty   bool
}

// OpenFormatCache loads the cache stored at path. A missing, unreadable or
// outdated file yields an empty cache that replaces it on Save.
func OpenFormatCache(fsys afero.Fs, path string, fingerprint Digest) (*FormatCache, error) {
	c := &FormatCache{fs: fsys, path: path, fingerprint: fingerprint, entries: make(map[string]Digest)}
	data, err := afero.ReadFile(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("format cache: %w", err)
	}
	var payload cachePayload
	if err := msgpack.Unmarshal(data, &payload); err != nil || payload.Schema != cacheSchema || payload.Fingerprint != fingerprint {
		// устаревший или битый кэш просто перезаписываем
		c.dirty = true
		return c, nil
	}
	if payload.Entries != nil {
		c.entries = payload.Entries
	}
	return c, nil
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Fresh reports whether path was last seen formatted with contents d.
func (c *FormatCache) Fresh(path string, d Digest) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	got, ok := c.entries[cacheKey(path)]
	return ok && got == d
}

// Mark records that path holds formatted contents d.
func (c *FormatCache) Mark(path string, d Digest) {
	if c == nil {
		return
	}
	key := cacheKey(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if got, ok := c.entries[key]; ok && got == d {
		return
	}
	c.entries[key] = d
	c.dirty = true
}

// Forget drops path from the cache.
func (c *FormatCache) Forget(path string) {
	if c == nil {
		return
	}
	key := cacheKey(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.dirty = true
	}
}

// Len returns the number of remembered files.
func (c *FormatCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache back when it changed. The file is replaced
// atomically.
func (c *FormatCache) Save() (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	data, err := msgpack.Marshal(&cachePayload{Schema: cacheSchema, Fingerprint: c.fingerprint, Entries: c.entries})
	if err != nil {
		return fmt.Errorf("format cache: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("format cache: %w", err)
	}
	f, err := afero.TempFile(c.fs, dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("format cache: %w", err)
	}
	defer func() {
		if err != nil {
			_ = c.fs.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("format cache: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("format cache: %w", err)
	}
	// Атомарная замена
	if err = c.fs.Rename(f.Name(), c.path); err != nil {
		return fmt.Errorf("format cache: %w", err)
	}
	c.dirty = false
	return nil
}
