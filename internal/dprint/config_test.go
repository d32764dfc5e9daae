package dprint

import (
	"testing"

	"github.com/tidwall/gjson"

	"bueno/internal/format"
)

func TestEncodeConfig(t *testing.T) {
	cfg := format.DefaultScriptConfig()
	raw, err := encodeConfig(cfg.PluginConfig(), cfg.GlobalConfig())
	if err != nil {
		t.Fatalf("encodeConfig: %v", err)
	}
	doc := gjson.ParseBytes(raw)
	checks := map[string]string{
		"plugin.quoteProps":                      "asNeeded",
		"plugin.module\\.sortImportDeclarations": "caseInsensitive",
		"plugin.ignoreFileCommentText":           "bueno-fmt-ignore-file",
		"global.useTabs":                         "true",
	}
	for path, want := range checks {
		if got := doc.Get(path).String(); got != want {
			t.Errorf("%s: got %q, want %q", path, got, want)
		}
	}
	if doc.Get("global.lineWidth").Exists() {
		t.Error("zero line width should be omitted")
	}
}

func TestEncodeConfigNilPlugin(t *testing.T) {
	raw, err := encodeConfig(nil, format.GlobalConfig{LineWidth: 80})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(raw); got != `{"global":{"lineWidth":80,"useTabs":false},"plugin":{}}` {
		t.Fatalf("got %s", got)
	}
}

func TestDecodeInfo(t *testing.T) {
	info, err := decodeInfo([]byte(`{"name":"dprint-plugin-json","version":"0.19.4","configKey":"json","helpUrl":"https://dprint.dev/plugins/json"}`))
	if err != nil {
		t.Fatalf("decodeInfo: %v", err)
	}
	if info.Name != "dprint-plugin-json" || info.ConfigKey != "json" || info.Version != "0.19.4" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if _, err := decodeInfo([]byte(`{"version":"1"}`)); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := decodeInfo([]byte(`{`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestDecodeDiagnostics(t *testing.T) {
	diags := decodeDiagnostics([]byte(`[{"propertyName":"lineWidth","message":"expected number"},{"propertyName":"","message":"bad"}]`))
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(diags))
	}
	if got := joinDiagnostics(diags); got != "lineWidth: expected number; bad" {
		t.Fatalf("got %q", got)
	}
	if len(decodeDiagnostics([]byte(`[]`))) != 0 {
		t.Fatal("empty array should yield no diagnostics")
	}
}
