package dprint

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotWasm is returned when a downloaded plugin is not a Wasm binary.
var ErrNotWasm = errors.New("not a wasm module")

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// IsURL reports whether a plugin entry names a download instead of a file.
func IsURL(entry string) bool {
	return strings.HasPrefix(entry, "https://") || strings.HasPrefix(entry, "http://")
}

// Fetcher downloads plugin binaries and keeps them in Dir, so every URL is
// fetched once per cache directory.
type Fetcher struct {
	Dir    string
	client *resty.Client
}

// NewFetcher returns a Fetcher storing plugins under dir.
func NewFetcher(dir string) *Fetcher {
	client := resty.New().
		SetTimeout(2*time.Minute).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= 500
	})
	return &Fetcher{Dir: dir, client: client}
}

// Path is where the binary downloaded from url is kept.
func (f *Fetcher) Path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.Dir, hex.EncodeToString(sum[:])+".wasm")
}

// Fetch returns the plugin binary behind url, downloading it when the cache
// does not hold it yet.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	path := f.Path(url)
	wasm, err := os.ReadFile(path)
	if err == nil {
		return wasm, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("plugin cache: %w", err)
	}

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download %s: %s", url, resp.Status())
	}
	wasm = resp.Body()
	if !bytes.HasPrefix(wasm, wasmMagic) {
		return nil, fmt.Errorf("download %s: %w", url, ErrNotWasm)
	}
	if err := writeFileAtomic(path, wasm); err != nil {
		return nil, fmt.Errorf("plugin cache: %w", err)
	}
	return wasm, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
