package format

import (
	"path/filepath"
	"slices"
	"strings"
)

// Language identifies a formatting target.
type Language uint8

const (
	// LangUnknown marks extensions without a formatter.
	LangUnknown Language = iota
	// LangScript covers JavaScript and TypeScript sources.
	LangScript
	// LangData covers JSON and JSON with comments.
	LangData
	// LangProse covers Markdown documents.
	LangProse
)

// String returns the string representation of Language.
func (l Language) String() string {
	switch l {
	case LangScript:
		return "script"
	case LangData:
		return "data"
	case LangProse:
		return "prose"
	default:
		return "unknown"
	}
}

// extLanguages is matched case-sensitively against the bare extension.
var extLanguages = map[string]Language{
	"js":       LangScript,
	"ts":       LangScript,
	"jsx":      LangScript,
	"tsx":      LangScript,
	"json":     LangData,
	"jsonc":    LangData,
	"md":       LangProse,
	"markdown": LangProse,
}

// LanguageForExt resolves a bare extension ("ts", not ".ts").
func LanguageForExt(ext string) (Language, bool) {
	lang, ok := extLanguages[ext]
	return lang, ok
}

// Extensions returns every supported extension in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(extLanguages))
	for ext := range extLanguages {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// ExtOf returns the extension of path without the leading dot.
func ExtOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// FakePath builds the synthetic file name printers use to pick a dialect
// (TypeScript vs JSX, JSON vs JSONC).
func FakePath(ext string) string {
	return "file." + ext
}
