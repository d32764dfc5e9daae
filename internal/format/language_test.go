package format

import (
	"slices"
	"testing"
)

func TestLanguageForExt(t *testing.T) {
	tests := []struct {
		ext  string
		lang Language
		ok   bool
	}{
		{"js", LangScript, true},
		{"ts", LangScript, true},
		{"jsx", LangScript, true},
		{"tsx", LangScript, true},
		{"json", LangData, true},
		{"jsonc", LangData, true},
		{"md", LangProse, true},
		{"markdown", LangProse, true},
		{"txt", LangUnknown, false},
		{"TS", LangUnknown, false},
		{".ts", LangUnknown, false},
		{"", LangUnknown, false},
	}
	for _, tt := range tests {
		lang, ok := LanguageForExt(tt.ext)
		if lang != tt.lang || ok != tt.ok {
			t.Errorf("LanguageForExt(%q) = %v, %v; want %v, %v", tt.ext, lang, ok, tt.lang, tt.ok)
		}
	}
}

func TestExtensionsSorted(t *testing.T) {
	exts := Extensions()
	if len(exts) != 8 {
		t.Fatalf("expected 8 extensions, got %d", len(exts))
	}
	if !slices.IsSorted(exts) {
		t.Fatalf("extensions not sorted: %v", exts)
	}
}

func TestExtOf(t *testing.T) {
	if got := ExtOf("dir/a.test.ts"); got != "ts" {
		t.Fatalf("ExtOf: got %q, want ts", got)
	}
	if got := ExtOf("Makefile"); got != "" {
		t.Fatalf("ExtOf: got %q, want empty", got)
	}
	if got := FakePath("tsx"); got != "file.tsx" {
		t.Fatalf("FakePath: got %q", got)
	}
}
