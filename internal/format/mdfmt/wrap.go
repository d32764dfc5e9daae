package mdfmt

import (
	"regexp"
	"strings"

	"bueno/internal/format"
)

type breakKind uint8

const (
	breakNone breakKind = iota
	breakSpaces
	breakBackslash
)

// word is an unbreakable run of paragraph text. brk records a hard line
// break that follows it in the source.
type word struct {
	text string
	brk  breakKind
}

// splitWords tokenizes paragraph text. Code spans stay inside one word with
// their line endings turned into spaces.
func splitWords(p string) []word {
	var (
		words []word
		cur   strings.Builder
	)
	flush := func(brk breakKind) {
		if cur.Len() == 0 {
			if brk != breakNone && len(words) > 0 {
				words[len(words)-1].brk = brk
			}
			return
		}
		words = append(words, word{text: cur.String(), brk: brk})
		cur.Reset()
	}
	for i := 0; i < len(p); {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p) && p[i+1] == '\n':
			cur.WriteByte('\\')
			flush(breakBackslash)
			i += 2
		case c == '\\' && i+1 < len(p) && isASCIIPunct(p[i+1]):
			cur.WriteString(p[i : i+2])
			i += 2
		case c == '`':
			n := runLength(p, i, '`')
			if end := closingRun(p, i+n, n); end >= 0 {
				cur.WriteString(strings.ReplaceAll(p[i:end+n], "\n", " "))
				i = end + n
				continue
			}
			cur.WriteString(p[i : i+n])
			i += n
		case isSpace(c):
			j := i
			for j < len(p) && isSpace(p[j]) {
				j++
			}
			brk := breakNone
			if nl := strings.IndexByte(p[i:j], '\n'); nl >= 0 && j < len(p) {
				if strings.HasSuffix(p[i:i+nl], "  ") {
					brk = breakSpaces
				}
			}
			flush(brk)
			i = j
		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush(breakNone)
	return words
}

// layout fills words into lines no wider than the writer's width.
func layout(w *format.Writer, words []word, wrap format.TextWrap) {
	for i, wd := range words {
		if i > 0 && !w.AtLineStart() {
			if wrap == format.TextWrapAlways && breakable(words[i-1], wd) && !w.Fits(wd.text) {
				w.Newline()
			} else {
				w.Space()
			}
		}
		w.WriteString(wd.text)
		switch wd.brk {
		case breakSpaces:
			w.WriteString("  ")
			w.Newline()
		case breakBackslash:
			w.Newline()
		}
	}
}

// breakable reports whether a soft line break may separate prev and next.
func breakable(prev, next word) bool {
	return canStartLine(next.text) && !endsWithBackslash(prev.text)
}

var (
	orderedMarker = regexp.MustCompile(`^[0-9]{1,9}[.)]$`)
	headingMarker = regexp.MustCompile(`^#{1,6}$`)
	markerRun     = regexp.MustCompile(`^[-=*_:|+]+$`)
)

// canStartLine reports whether w may begin a wrapped line without being read
// as the start of a new block.
func canStartLine(w string) bool {
	switch {
	case w == "":
		return true
	case strings.HasPrefix(w, ">"), strings.HasPrefix(w, "<"), strings.HasPrefix(w, "|"):
		return false
	case strings.HasPrefix(w, "```"), strings.HasPrefix(w, "~~~"):
		return false
	case headingMarker.MatchString(w), orderedMarker.MatchString(w), markerRun.MatchString(w):
		return false
	}
	return true
}

func endsWithBackslash(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func runLength(s string, i int, c byte) int {
	j := i
	for j < len(s) && s[j] == c {
		j++
	}
	return j - i
}

// closingRun finds the next run of exactly n backticks at or after i.
func closingRun(s string, i, n int) int {
	for i < len(s) {
		if s[i] != '`' {
			i++
			continue
		}
		m := runLength(s, i, '`')
		if m == n {
			return i
		}
		i += m
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}
