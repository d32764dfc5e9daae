package format

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFormatter is returned when a supported language has no capability installed.
	ErrNoFormatter = errors.New("no formatter registered")
	// ErrSyntax is the class of every malformed-input failure.
	ErrSyntax = errors.New("syntax error")
)

// SyntaxError describes malformed input reported by a printer.
type SyntaxError struct {
	Lang   Language
	Offset int // byte offset, -1 when unknown
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: syntax error at byte %d: %s", e.Lang, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s: syntax error: %s", e.Lang, e.Msg)
}

// Unwrap lets errors.Is match ErrSyntax.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }
