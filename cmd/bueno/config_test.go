package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"bueno/internal/format"
	"bueno/internal/version"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigSearchesUpwards(t *testing.T) {
	t.Setenv(configEnvVar, "")
	root := t.TempDir()
	writeConfig(t, root, `
[fmt]
cache_dir = ".bueno/cache"

[fmt.plugins]
typescript = "plugins/ts.wasm"
json = "/opt/json.wasm"
`)
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig("", nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != root || cfg.Source != "search" {
		t.Fatalf("unexpected root/source: %q %q", cfg.Root, cfg.Source)
	}
	if want := filepath.Join(root, ".bueno", "cache"); cfg.Fmt.CacheDir != want {
		t.Fatalf("cache_dir = %q, want %q", cfg.Fmt.CacheDir, want)
	}
	if want := filepath.Join(root, "plugins", "ts.wasm"); cfg.Fmt.Plugins.TypeScript != want {
		t.Fatalf("typescript = %q, want %q", cfg.Fmt.Plugins.TypeScript, want)
	}
	if cfg.Fmt.Plugins.JSON != "/opt/json.wasm" || cfg.Fmt.Plugins.Markdown != "" {
		t.Fatalf("unexpected plugins: %+v", cfg.Fmt.Plugins)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(configEnvVar, "")
	dir := t.TempDir()
	cfg, err := loadConfig("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || cfg.Source != "defaults" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	slots := pluginSlots(cfg)
	if len(slots) != 1 || slots[0].lang != format.LangScript || !slots[0].lazy || slots[0].source != defaultTypeScriptPlugin {
		t.Fatalf("want the lazy default script plugin, got %+v", slots)
	}
}

func TestPluginSlotEntries(t *testing.T) {
	tests := []struct {
		name    string
		plugins pluginsConfig
		want    []string
		lazy    bool
	}{
		{name: "default", want: []string{defaultTypeScriptPlugin}, lazy: true},
		{name: "none", plugins: pluginsConfig{TypeScript: "none"}},
		{name: "path", plugins: pluginsConfig{TypeScript: "/opt/ts.wasm"}, want: []string{"/opt/ts.wasm"}},
		{
			name:    "urls",
			plugins: pluginsConfig{TypeScript: "none", JSON: "https://example.com/json.wasm", Markdown: "/opt/md.wasm"},
			want:    []string{"https://example.com/json.wasm", "/opt/md.wasm"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := pluginSlots(&buenoConfig{Fmt: fmtConfig{Plugins: tt.plugins}})
			var got []string
			for _, s := range slots {
				got = append(got, s.source)
				if s.lazy != tt.lazy {
					t.Fatalf("%s: lazy = %v, want %v", s.source, s.lazy, tt.lazy)
				}
			}
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveKeepsURLsAndNone(t *testing.T) {
	cfg := &buenoConfig{Root: "/proj"}
	tests := []struct {
		in, want string
	}{
		{"https://example.com/ts.wasm", "https://example.com/ts.wasm"},
		{"none", "none"},
		{"plugins/ts.wasm", filepath.Join("/proj", "plugins", "ts.wasm")},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cfg.resolve(tt.in); got != tt.want {
			t.Errorf("resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	fromEnv := writeConfig(t, t.TempDir(), "[fmt]\n")
	explicit := writeConfig(t, t.TempDir(), "[fmt]\n")
	t.Setenv(configEnvVar, fromEnv)

	cfg, err := loadConfig("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != fromEnv || cfg.Source != configEnvVar {
		t.Fatalf("env config ignored: %+v", cfg)
	}
	cfg, err = loadConfig(explicit, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != explicit || cfg.Source != "--config" {
		t.Fatalf("--config ignored: %+v", cfg)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[fmt]\nline_widht = 100\n")
	_, err := loadConfig(path, ".")
	if err == nil || !strings.Contains(err.Error(), "line_widht") {
		t.Fatalf("want unknown key error, got %v", err)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), ".")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestAssembleDispatcherBuiltins(t *testing.T) {
	cfg := &buenoConfig{Source: "defaults", Root: t.TempDir()}
	stack, err := assembleDispatcher(context.Background(), cfg, log.New(&strings.Builder{}))
	if err != nil {
		t.Fatal(err)
	}
	defer stack.release()
	d := stack.dispatcher
	if !d.Has(format.LangScript) {
		t.Fatal("script should be served by the default plugin")
	}
	if got := stack.capabilities[format.LangScript]; !strings.Contains(got, defaultTypeScriptPlugin) {
		t.Fatalf("script capability = %q", got)
	}
	if _, err := os.Stat(cfg.pluginCacheDir()); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("nothing should be downloaded before a script file is formatted: %v", err)
	}
	if !d.Has(format.LangData) || !d.Has(format.LangProse) {
		t.Fatalf("built-ins missing: %v", d.Languages())
	}

	res, err := d.Format(context.Background(), "md", "# t\n\n```json\n{\"a\":1}\n```\n")
	if err != nil {
		t.Fatal(err)
	}
	text, changed := res.Text()
	if !changed || !strings.Contains(text, "{\n\t\"a\": 1\n}\n") {
		t.Fatalf("embedded json not formatted: %q", text)
	}
}

func TestAssembleDispatcherMissingPlugin(t *testing.T) {
	cfg := &buenoConfig{Fmt: fmtConfig{Plugins: pluginsConfig{TypeScript: filepath.Join(t.TempDir(), "missing.wasm")}}}
	_, err := assembleDispatcher(context.Background(), cfg, log.New(&strings.Builder{}))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestAssembleDispatcherScriptNone(t *testing.T) {
	cfg := &buenoConfig{Fmt: fmtConfig{Plugins: pluginsConfig{TypeScript: "none"}}}
	stack, err := assembleDispatcher(context.Background(), cfg, log.New(&strings.Builder{}))
	if err != nil {
		t.Fatal(err)
	}
	defer stack.release()
	if stack.dispatcher.Has(format.LangScript) {
		t.Fatal("script plugin disabled with none")
	}
	if _, err := stack.dispatcher.Format(context.Background(), "ts", "let x"); !errors.Is(err, format.ErrNoFormatter) {
		t.Fatalf("want ErrNoFormatter, got %v", err)
	}
}

func TestStackFingerprintTracksVersion(t *testing.T) {
	stack, err := assembleDispatcher(context.Background(), &buenoConfig{Root: t.TempDir()}, log.New(&strings.Builder{}))
	if err != nil {
		t.Fatal(err)
	}
	before := stack.fingerprint()
	if stack.fingerprint() != before {
		t.Fatal("fingerprint is not stable")
	}
	orig := version.Version
	version.Version = "9.9.9"
	t.Cleanup(func() { version.Version = orig })
	if stack.fingerprint() == before {
		t.Fatal("fingerprint ignores the tool version")
	}
}

func TestIncrementalCachePath(t *testing.T) {
	cfg := &buenoConfig{Root: "/proj"}
	if got, want := cfg.incrementalCachePath(), filepath.Join("/proj", ".bueno", "cache", "fmt-incremental.mp"); got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
	cfg.Fmt.CacheDir = "/tmp/c"
	if got, want := cfg.incrementalCachePath(), filepath.Join("/tmp/c", "fmt-incremental.mp"); got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
	if got, want := cfg.pluginCacheDir(), filepath.Join("/tmp/c", "plugins"); got != want {
		t.Fatalf("plugin cache = %q, want %q", got, want)
	}
}

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeOff, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatal("explicit modes are not honored")
	}
}
