// Package mdfmt is the built-in prose printer.
//
// Block structure comes from goldmark (CommonMark with the GFM extensions).
// Paragraphs are re-flowed to the configured width and fenced code blocks
// carrying a language tag are handed to the embed bridge, which routes them
// back through the dispatcher. Both are found at any depth inside lists and
// blockquotes: the container prefix is stripped before the block is
// formatted and written back in front of every produced line. All other
// blocks are copied through untouched.
package mdfmt

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"bueno/internal/format"
)

// Formatter prints Markdown. It is immutable and safe for concurrent use.
type Formatter struct {
	cfg   format.ProseConfig
	embed format.EmbedFunc
	md    goldmark.Markdown
}

// New binds cfg and the embed bridge to a printer. A nil embed leaves code
// blocks untouched.
func New(cfg format.ProseConfig, embed format.EmbedFunc) *Formatter {
	if cfg.LineWidth <= 0 {
		cfg.LineWidth = 80
	}
	if cfg.TextWrap == "" {
		cfg.TextWrap = format.TextWrapAlways
	}
	return &Formatter{
		cfg:   cfg,
		embed: embed,
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Config returns the bound configuration.
func (f *Formatter) Config() format.ProseConfig {
	return f.cfg
}

// Format implements format.Formatter.
func (f *Formatter) Format(ctx context.Context, _ string, input string) (format.Result, error) {
	if err := ctx.Err(); err != nil {
		return format.NoChange(), err
	}
	src := strings.ReplaceAll(input, "\r\n", "\n")
	if format.HasIgnoreFileDirective(format.LangProse, src, f.cfg.IgnoreFileDirective) {
		return format.NoChange(), nil
	}
	if src != "" && !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	out, err := f.render(ctx, src)
	if err != nil {
		return format.NoChange(), err
	}
	return format.Compare(input, out), nil
}

type renderer struct {
	f   *Formatter
	src string
	buf []byte
	w   *format.Writer
	pos int
}

func (f *Formatter) render(ctx context.Context, src string) (string, error) {
	r := &renderer{
		f:   f,
		src: src,
		buf: []byte(src),
		w:   format.NewWriter(src, format.Options{LineWidth: f.cfg.LineWidth}),
	}
	doc := f.md.Parser().Parse(text.NewReader(r.buf))
	if err := r.blocks(ctx, doc, false); err != nil {
		return "", err
	}
	r.w.CopyRange(r.pos, len(src))
	return r.w.Finish(), nil
}

// blocks formats the children of parent in source order. Ignore directives
// apply to the siblings that follow them inside the same container.
func (r *renderer) blocks(ctx context.Context, parent ast.Node, nested bool) error {
	skipNext, inRange := false, false
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if d := r.directive(n); d != "" {
			switch d {
			case r.f.cfg.IgnoreDirective:
				skipNext = true
			case r.f.cfg.IgnoreStartDirective:
				inRange = true
			case r.f.cfg.IgnoreEndDirective:
				inRange = false
			}
			continue
		}
		if skipNext || inRange {
			skipNext = false
			continue
		}
		switch node := n.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			r.paragraph(node, nested)
		case *ast.FencedCodeBlock:
			if err := r.codeBlock(ctx, node); err != nil {
				return err
			}
		case *ast.List, *ast.ListItem, *ast.Blockquote:
			if err := r.blocks(ctx, node, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// splice copies the source up to start, writes repl and resumes copying at end.
func (r *renderer) splice(start, end int, repl string) {
	r.w.CopyRange(r.pos, start)
	r.w.WriteString(repl)
	r.pos = end
}

// paragraph re-flows a paragraph or the text block of a tight list item.
// Inside containers the marker prefix of the first line is kept and
// continuation lines get the same prefix with list markers blanked out.
func (r *renderer) paragraph(n ast.Node, nested bool) {
	if r.f.cfg.TextWrap == format.TextWrapMaintain {
		return
	}
	lines := n.Lines()
	if lines.Len() == 0 {
		return
	}
	first, last := lines.At(0), lines.At(lines.Len()-1)
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if seg.Padding > 0 {
			return
		}
		sb.WriteString(r.src[seg.Start:seg.Stop])
	}
	start, end := lineStart(r.src, first.Start), lineEnd(r.src, last.Stop)

	lead, cont := "", ""
	if nested {
		lead = r.src[start:first.Start]
		if strings.ContainsRune(lead, '\t') {
			return
		}
		cont = continuation(lead)
	}
	pw := format.NewWriter("", format.Options{LineWidth: max(r.f.cfg.LineWidth-len(lead), 1)})
	layout(pw, splitWords(sb.String()), r.f.cfg.TextWrap)
	out := strings.Split(strings.TrimRight(pw.String(), "\n"), "\n")
	for i := range out {
		if i == 0 {
			out[i] = lead + out[i]
		} else {
			out[i] = cont + out[i]
		}
	}
	r.splice(start, end, strings.Join(out, "\n"))
}

// codeBlock hands the body of a tagged fenced block to the embed bridge.
// Every non-blank body line must share one prefix; it is removed before
// formatting and put back on each line of the result.
func (r *renderer) codeBlock(ctx context.Context, n *ast.FencedCodeBlock) error {
	if r.f.embed == nil {
		return nil
	}
	tag := string(n.Language(r.buf))
	lines := n.Lines()
	if tag == "" || lines.Len() == 0 {
		return nil
	}
	prefix, found := "", false
	var body strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if seg.Padding > 0 {
			return nil
		}
		content := r.src[seg.Start:seg.Stop]
		body.WriteString(content)
		if strings.TrimSpace(content) == "" {
			continue
		}
		p := r.src[lineStart(r.src, seg.Start):seg.Start]
		if !found {
			prefix, found = p, true
		} else if p != prefix {
			return nil
		}
	}
	if !found || strings.ContainsRune(prefix, '\t') {
		return nil
	}
	start, end := lines.At(0).Start, lines.At(lines.Len()-1).Stop
	res, err := r.f.embed(ctx, tag, body.String())
	if err != nil {
		return fmt.Errorf("%s code block at line %d: %w", tag, lineNumber(r.src, start)-1, err)
	}
	repl, ok := res.Text()
	if !ok {
		return nil
	}
	r.splice(lineStart(r.src, start), end, indentBlock(repl, prefix))
	return nil
}

// continuation turns the prefix of a block's first line into the prefix of
// its following lines: blockquote markers stay, list markers become spaces.
func continuation(lead string) string {
	b := []byte(lead)
	for i, c := range b {
		if c != '>' && c != ' ' {
			b[i] = ' '
		}
	}
	return string(b)
}

// indentBlock puts prefix in front of every line of s. Blank lines keep only
// the prefix's container markers.
func indentBlock(s, prefix string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimSuffix(s, "\n")
	blank := strings.TrimRight(prefix, " ")
	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if line == "" {
			sb.WriteString(blank)
		} else {
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// directive returns the directive named by an HTML comment block.
func (r *renderer) directive(n ast.Node) string {
	hb, ok := n.(*ast.HTMLBlock)
	if !ok || hb.HTMLBlockType != ast.HTMLBlockType2 {
		return ""
	}
	var sb strings.Builder
	lines := hb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.WriteString(r.src[seg.Start:seg.Stop])
	}
	if hb.HasClosure() {
		sb.WriteString(r.src[hb.ClosureLine.Start:hb.ClosureLine.Stop])
	}
	body := strings.TrimSpace(sb.String())
	if !strings.HasPrefix(body, "<!--") || !strings.HasSuffix(body, "-->") {
		return ""
	}
	fields := strings.Fields(body[4 : len(body)-3])
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case r.f.cfg.IgnoreDirective, r.f.cfg.IgnoreStartDirective, r.f.cfg.IgnoreEndDirective:
		return fields[0]
	}
	return ""
}

func lineStart(src string, pos int) int {
	return strings.LastIndexByte(src[:pos], '\n') + 1
}

func lineEnd(src string, pos int) int {
	if i := strings.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(src)
}

func lineNumber(src string, pos int) int {
	return strings.Count(src[:pos], "\n") + 1
}
