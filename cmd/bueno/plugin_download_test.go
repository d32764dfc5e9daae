package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"bueno/internal/format"
)

// servePlugin serves the test plugin from internal/dprint and counts requests.
func servePlugin(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	wasm, err := os.ReadFile("../../internal/dprint/testdata/fixture.wasm")
	if err != nil {
		t.Fatal(err)
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(wasm)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func formatScript(t *testing.T, stack *formatStack, text string) string {
	t.Helper()
	res, err := stack.dispatcher.Format(context.Background(), "ts", text)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return res.Apply(text)
}

func TestAssembleDispatcherDownloadsOnce(t *testing.T) {
	srv, hits := servePlugin(t)
	cfg := &buenoConfig{Fmt: fmtConfig{
		CacheDir: t.TempDir(),
		Plugins:  pluginsConfig{TypeScript: srv.URL + "/typescript.wasm"},
	}}
	logger := log.New(&strings.Builder{})

	stack, err := assembleDispatcher(context.Background(), cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	if got := formatScript(t, stack, "let x"); got != "LET X" {
		t.Fatalf("got %q", got)
	}
	stack.release()
	if n := hits.Load(); n != 1 {
		t.Fatalf("downloads = %d, want 1", n)
	}

	srv.Close()
	stack, err = assembleDispatcher(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("second run should read the plugin cache: %v", err)
	}
	defer stack.release()
	if got := formatScript(t, stack, "const y"); got != "CONST Y" {
		t.Fatalf("got %q", got)
	}
	if !strings.HasPrefix(stack.capabilities[format.LangScript], "dprint:fixture@0.1.0") {
		t.Fatalf("capability = %q", stack.capabilities[format.LangScript])
	}
}

func TestAssembleDispatcherDefaultScriptPluginIsLazy(t *testing.T) {
	srv, hits := servePlugin(t)
	orig := defaultTypeScriptPlugin
	defaultTypeScriptPlugin = srv.URL + "/typescript-default.wasm"
	t.Cleanup(func() { defaultTypeScriptPlugin = orig })

	cfg := &buenoConfig{Fmt: fmtConfig{CacheDir: t.TempDir()}}
	stack, err := assembleDispatcher(context.Background(), cfg, log.New(&strings.Builder{}))
	if err != nil {
		t.Fatal(err)
	}
	defer stack.release()

	res, err := stack.dispatcher.Format(context.Background(), "json", `{"a":1}`)
	if err != nil || !res.Changed() {
		t.Fatalf("json: %v %v", res, err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("plugin fetched before any script file: %d requests", n)
	}
	for _, text := range []string{"let x", "let y"} {
		if got := formatScript(t, stack, text); got != strings.ToUpper(text) {
			t.Fatalf("got %q", got)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("downloads = %d, want 1", n)
	}
}

func TestAssembleDispatcherLazyDownloadError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	orig := defaultTypeScriptPlugin
	defaultTypeScriptPlugin = srv.URL + "/missing.wasm"
	t.Cleanup(func() { defaultTypeScriptPlugin = orig })

	stack, err := assembleDispatcher(context.Background(), &buenoConfig{Fmt: fmtConfig{CacheDir: t.TempDir()}}, log.New(&strings.Builder{}))
	if err != nil {
		t.Fatal(err)
	}
	defer stack.release()
	_, err = stack.dispatcher.Format(context.Background(), "ts", "let x")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("want a download error, got %v", err)
	}
}
