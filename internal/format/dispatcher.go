package format

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"bueno/internal/trace"
)

// Formatter is a pretty-printing capability for one language. The
// configuration is bound when the capability is constructed.
type Formatter interface {
	Format(ctx context.Context, ext, text string) (Result, error)
}

// FormatterFunc adapts a plain function to Formatter.
type FormatterFunc func(ctx context.Context, ext, text string) (Result, error)

// Format calls f.
func (f FormatterFunc) Format(ctx context.Context, ext, text string) (Result, error) {
	return f(ctx, ext, text)
}

// EmbedFunc formats a block embedded in prose, keyed by its language tag.
type EmbedFunc func(ctx context.Context, tag, text string) (Result, error)

// Dispatcher routes text to the capability registered for its language.
// Registration happens at assembly time; Format is safe for concurrent use
// once assembly is done.
type Dispatcher struct {
	formatters map[Language]Formatter
	ignoreFile string
}

// NewDispatcher returns an empty dispatcher that honors the IgnoreFile directive.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		formatters: make(map[Language]Formatter, 3),
		ignoreFile: IgnoreFile,
	}
}

// Register installs f as the capability for lang, replacing any previous one.
func (d *Dispatcher) Register(lang Language, f Formatter) {
	if f == nil {
		delete(d.formatters, lang)
		return
	}
	d.formatters[lang] = f
}

// Has reports whether lang has a capability.
func (d *Dispatcher) Has(lang Language) bool {
	_, ok := d.formatters[lang]
	return ok
}

// Languages lists the registered languages in declaration order.
func (d *Dispatcher) Languages() []Language {
	langs := make([]Language, 0, len(d.formatters))
	for lang := range d.formatters {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// Format formats text as the language associated with ext. Unknown
// extensions and files opening with the ignore-file directive yield
// NoChange without consulting any capability.
func (d *Dispatcher) Format(ctx context.Context, ext, text string) (Result, error) {
	lang, ok := LanguageForExt(ext)
	if !ok {
		return NoChange(), nil
	}
	if HasIgnoreFileDirective(lang, text, d.ignoreFile) {
		return NoChange(), nil
	}
	f, ok := d.formatters[lang]
	if !ok {
		return NoChange(), fmt.Errorf("%s (.%s): %w", lang, ext, ErrNoFormatter)
	}
	return f.Format(ctx, ext, text)
}

// FormatEmbedded formats a fenced block whose language tag is tag. The tag
// is matched like an extension; a language without a capability leaves the
// block as it is.
func (d *Dispatcher) FormatEmbedded(ctx context.Context, tag, text string) (Result, error) {
	ctx, span := trace.StartSpan(ctx, trace.ScopeBlock, tag)
	res, err := d.Format(ctx, tag, text)
	if errors.Is(err, ErrNoFormatter) {
		span.End("no formatter")
		return NoChange(), nil
	}
	if err != nil {
		span.Fail(err)
		return res, err
	}
	span.End("")
	return res, nil
}

// Embed returns the bridge handed to prose formatters.
func (d *Dispatcher) Embed() EmbedFunc {
	return d.FormatEmbedded
}
