// Package jsonfmt is the built-in structured-data printer.
//
// It lays out JSON and JSONC documents: objects one member per line, arrays
// collapsed onto one line when they fit the configured width. Trailing commas
// are dropped. Plain documents go through tidwall/pretty. Documents carrying
// comments go through a token printer that applies the same layout and keeps
// every comment next to the member it was written against. A member preceded
// by the ignore-node comment is copied as written.
package jsonfmt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"bueno/internal/format"
)

// Formatter prints structured data. It is immutable and safe for concurrent use.
type Formatter struct {
	cfg  format.DataConfig
	opts pretty.Options
}

// New binds cfg to a printer.
func New(cfg format.DataConfig) *Formatter {
	indent := "\t"
	if !cfg.UseTabs {
		indent = "  "
	}
	width := cfg.LineWidth
	if width <= 0 {
		width = 80
	}
	return &Formatter{
		cfg:  cfg,
		opts: pretty.Options{Width: width, Indent: indent},
	}
}

// Config returns the bound configuration.
func (f *Formatter) Config() format.DataConfig {
	return f.cfg
}

// Format implements format.Formatter.
func (f *Formatter) Format(ctx context.Context, _ string, text string) (format.Result, error) {
	if err := ctx.Err(); err != nil {
		return format.NoChange(), err
	}
	body := strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(body) == "" {
		return format.Compare(text, ""), nil
	}
	plain := string(pretty.Spec([]byte(body)))
	if !gjson.Valid(plain) {
		return format.NoChange(), syntaxError(plain)
	}
	if hasComments(body) {
		out, err := f.printCommented(body)
		if err != nil {
			return format.NoChange(), err
		}
		return format.Compare(text, out), nil
	}
	out := string(pretty.PrettyOptions([]byte(plain), &f.opts))
	return format.Compare(text, out), nil
}

func (f *Formatter) printCommented(src string) (string, error) {
	doc, err := parseDocument(src, f.cfg.IgnoreNodeComment)
	if err != nil {
		return "", &format.SyntaxError{Lang: format.LangData, Offset: -1, Msg: err.Error()}
	}
	pr := &printer{width: f.opts.Width, indent: f.opts.Indent, forceSpace: f.cfg.ForceSpaceComment}
	return pr.document(doc), nil
}

// syntaxError locates the first malformed byte of src.
func syntaxError(src string) error {
	var v any
	err := json.Unmarshal([]byte(src), &v)
	var se *json.SyntaxError
	switch {
	case errors.As(err, &se):
		return &format.SyntaxError{Lang: format.LangData, Offset: int(se.Offset), Msg: se.Error()}
	case err != nil:
		return &format.SyntaxError{Lang: format.LangData, Offset: -1, Msg: err.Error()}
	default:
		return &format.SyntaxError{Lang: format.LangData, Offset: -1, Msg: "invalid document"}
	}
}

// hasComments reports whether src holds a // or /* comment outside strings.
func hasComments(src string) bool {
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '/':
			if i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*') {
				return true
			}
		}
	}
	return false
}
