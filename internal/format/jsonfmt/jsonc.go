package jsonfmt

import (
	"fmt"
	"strings"
)

type tokenKind uint8

const (
	tokPunct tokenKind = iota
	tokString
	tokLiteral
	tokLineComment
	tokBlockComment
)

// token is one lexeme of a JSONC document. nl records whether a line break
// separates it from the previous token.
type token struct {
	kind       tokenKind
	text       string
	start, end int
	nl         bool
}

func (t token) comment() bool {
	return t.kind == tokLineComment || t.kind == tokBlockComment
}

func (t token) punct(c byte) bool {
	return t.kind == tokPunct && t.text[0] == c
}

// tokenize splits src into tokens. src must already be known to be valid
// JSONC; malformed input is tokenized leniently.
func tokenize(src string) []token {
	var toks []token
	nl := false
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			nl = true
			i++
			continue
		case c == ' ' || c == '\t' || c == '\r':
			i++
			continue
		}
		start := i
		kind := tokLiteral
		switch {
		case strings.IndexByte("{}[],:", c) >= 0:
			kind = tokPunct
			i++
		case c == '"':
			kind = tokString
			for i++; i < len(src) && src[i] != '"'; i++ {
				if src[i] == '\\' {
					i++
				}
			}
			i = min(i+1, len(src))
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			kind = tokLineComment
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			kind = tokBlockComment
			if end := strings.Index(src[i+2:], "*/"); end >= 0 {
				i += end + 4
			} else {
				i = len(src)
			}
		default:
			for i < len(src) && strings.IndexByte(" \t\r\n{}[],:\"/", src[i]) < 0 {
				i++
			}
			if i == start {
				i++
			}
		}
		text := src[start:i]
		if kind == tokLineComment {
			text = strings.TrimRight(text, " \t\r")
		}
		toks = append(toks, token{kind: kind, text: text, start: start, end: i, nl: nl})
		nl = false
	}
	return toks
}

type comment struct {
	text  string
	block bool
	// own is set when the comment starts its own line.
	own bool
}

type node struct {
	// open is '{' or '[' for containers and 0 for scalars.
	open  byte
	text  string
	items []*member
	// dangling holds comments between the last member and the closing bracket.
	dangling   []comment
	start, end int
}

// member is an object member or an array element.
type member struct {
	leading  []comment
	key      string
	value    *node
	trailing []comment
	// verbatim is the source text of a member marked with the ignore comment.
	verbatim string
}

type document struct {
	leading  []comment
	root     *node
	trailing []comment
	verbatim string
}

type parser struct {
	src    string
	toks   []token
	pos    int
	marker string
}

func parseDocument(src, marker string) (*document, error) {
	p := &parser{src: src, toks: tokenize(src), marker: marker}
	doc := &document{leading: p.comments()}
	start := p.pos
	root, err := p.value()
	if err != nil {
		return nil, err
	}
	doc.root = root
	if p.ignored(doc.leading) {
		doc.verbatim = src[p.toks[start].start:root.end]
	}
	doc.trailing = p.comments()
	if p.pos < len(p.toks) {
		return nil, p.unexpected()
	}
	return doc, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) unexpected() error {
	if t, ok := p.peek(); ok {
		return fmt.Errorf("unexpected %q at offset %d", t.text, t.start)
	}
	return fmt.Errorf("unexpected end of document")
}

// comments consumes a run of comments.
func (p *parser) comments() []comment {
	var out []comment
	for {
		t, ok := p.peek()
		if !ok || !t.comment() {
			return out
		}
		out = append(out, comment{text: t.text, block: t.kind == tokBlockComment, own: t.nl})
		p.pos++
	}
}

// trailingComments consumes comments that sit on the line of the token just
// read.
func (p *parser) trailingComments() []comment {
	var out []comment
	for {
		t, ok := p.peek()
		if !ok || !t.comment() || t.nl {
			return out
		}
		out = append(out, comment{text: t.text, block: t.kind == tokBlockComment})
		p.pos++
	}
}

func (p *parser) ignored(cs []comment) bool {
	if p.marker == "" {
		return false
	}
	for _, c := range cs {
		if strings.Contains(c.text, p.marker) {
			return true
		}
	}
	return false
}

func (p *parser) value() (*node, error) {
	t, ok := p.peek()
	if !ok {
		return nil, p.unexpected()
	}
	switch {
	case t.punct('{'), t.punct('['):
		return p.container(t.text[0])
	case t.kind == tokString, t.kind == tokLiteral:
		p.pos++
		return &node{text: t.text, start: t.start, end: t.end}, nil
	}
	return nil, p.unexpected()
}

func (p *parser) container(open byte) (*node, error) {
	closing := byte(']')
	if open == '{' {
		closing = '}'
	}
	n := &node{open: open, start: p.toks[p.pos].start}
	p.pos++
	pending := p.comments()
	for {
		t, ok := p.peek()
		if !ok {
			return nil, p.unexpected()
		}
		if t.punct(closing) {
			n.dangling = pending
			n.end = t.end
			p.pos++
			return n, nil
		}
		m := &member{leading: pending}
		skip := p.ignored(m.leading)
		from := t.start
		var inner []comment
		if open == '{' {
			if t.kind != tokString {
				return nil, p.unexpected()
			}
			m.key = t.text
			p.pos++
			inner = append(inner, p.comments()...)
			if t, ok := p.peek(); !ok || !t.punct(':') {
				return nil, p.unexpected()
			}
			p.pos++
			inner = append(inner, p.comments()...)
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		m.value = v
		if skip {
			m.verbatim = p.src[from:v.end]
		} else {
			m.leading = append(m.leading, inner...)
		}
		m.trailing = p.trailingComments()
		pending = p.comments()
		if t, ok := p.peek(); ok && t.punct(',') {
			p.pos++
			if len(pending) == 0 {
				m.trailing = append(m.trailing, p.trailingComments()...)
			}
			pending = append(pending, p.comments()...)
		}
		n.items = append(n.items, m)
	}
}

// printer lays out a parsed JSONC document with the same rules the plain
// JSON path gets from tidwall/pretty, keeping comments where they were.
type printer struct {
	width      int
	indent     string
	forceSpace bool
	buf        strings.Builder
	lineStart  int
}

func (pr *printer) write(s string) {
	pr.buf.WriteString(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		pr.lineStart = pr.buf.Len() - len(s) + i + 1
	}
}

func (pr *printer) newline(depth int) {
	pr.write("\n")
	pr.write(strings.Repeat(pr.indent, depth))
}

func (pr *printer) column() int {
	return pr.buf.Len() - pr.lineStart
}

func (pr *printer) comment(c comment) {
	text := c.text
	if pr.forceSpace && !c.block && len(text) > 2 && strings.IndexByte(" \t/", text[2]) < 0 {
		text = "// " + text[2:]
	}
	pr.write(text)
}

func (pr *printer) document(doc *document) string {
	for _, c := range doc.leading {
		pr.comment(c)
		pr.write("\n")
	}
	if doc.verbatim != "" {
		pr.write(doc.verbatim)
	} else {
		pr.value(doc.root, 0)
	}
	for _, c := range doc.trailing {
		if c.own {
			pr.write("\n")
		} else {
			pr.write(" ")
		}
		pr.comment(c)
	}
	pr.write("\n")
	return pr.buf.String()
}

func (pr *printer) value(n *node, depth int) {
	switch n.open {
	case 0:
		pr.write(n.text)
		return
	case '[':
		if n.flat() {
			line := n.oneLine()
			limit := pr.width
			if col := pr.column(); col > 0 {
				limit -= col + 1
			}
			if limit > 3 && len(line) <= limit {
				pr.write(line)
				return
			}
		}
	}
	closing := "]"
	if n.open == '{' {
		closing = "}"
	}
	pr.write(string(n.open))
	if len(n.items) == 0 && len(n.dangling) == 0 {
		pr.write(closing)
		return
	}
	for i, m := range n.items {
		pr.newline(depth + 1)
		for _, c := range m.leading {
			pr.comment(c)
			pr.newline(depth + 1)
		}
		if m.verbatim != "" {
			pr.write(m.verbatim)
		} else {
			if m.key != "" {
				pr.write(m.key)
				pr.write(": ")
			}
			pr.value(m.value, depth+1)
		}
		if i < len(n.items)-1 {
			pr.write(",")
		}
		for _, c := range m.trailing {
			pr.write(" ")
			pr.comment(c)
		}
	}
	for _, c := range n.dangling {
		pr.newline(depth + 1)
		pr.comment(c)
	}
	pr.newline(depth)
	pr.write(closing)
}

// flat reports whether an array may be collapsed onto one line: no objects,
// no comments and no ignored members anywhere inside it.
func (n *node) flat() bool {
	if n.open == '{' || len(n.dangling) > 0 {
		return false
	}
	for _, m := range n.items {
		if len(m.leading) > 0 || len(m.trailing) > 0 || m.verbatim != "" {
			return false
		}
		if m.value.open != 0 && !m.value.flat() {
			return false
		}
	}
	return true
}

func (n *node) oneLine() string {
	if n.open == 0 {
		return n.text
	}
	parts := make([]string, len(n.items))
	for i, m := range n.items {
		parts[i] = m.value.oneLine()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
