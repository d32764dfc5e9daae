package dprint

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		entry string
		want  bool
	}{
		{"https://plugins.dprint.dev/typescript-0.93.0.wasm", true},
		{"http://localhost:8080/p.wasm", true},
		{"/opt/plugins/ts.wasm", false},
		{"plugins/https.wasm", false},
		{"none", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.entry); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.entry, got, tt.want)
		}
	}
}

func TestFetchCachesDownload(t *testing.T) {
	wasm := readFixture(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(wasm)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	url := srv.URL + "/plugin.wasm"
	for i := range 3 {
		got, err := f.Fetch(context.Background(), url)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if !bytes.Equal(got, wasm) {
			t.Fatalf("fetch %d returned %d bytes, want %d", i, len(got), len(wasm))
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}
	if _, err := os.Stat(f.Path(url)); err != nil {
		t.Fatalf("cached file: %v", err)
	}
	if f.Path(url) == f.Path(url+"?v=2") {
		t.Fatal("different URLs share a cache entry")
	}
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/html") {
			_, _ = w.Write([]byte("<html>not a plugin</html>"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	_, err := f.Fetch(context.Background(), srv.URL+"/html")
	if !errors.Is(err, ErrNotWasm) {
		t.Fatalf("want ErrNotWasm, got %v", err)
	}
	if _, statErr := os.Stat(f.Path(srv.URL + "/html")); statErr == nil {
		t.Fatal("rejected download was cached")
	}

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("want a 404 error, got %v", err)
	}
}
