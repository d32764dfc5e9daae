package format

import "strings"

// HasIgnoreFileDirective reports whether one of the comments that open text
// carries marker as its first word. Only comments before the first token are
// inspected, so the rest of the file may be arbitrarily malformed.
func HasIgnoreFileDirective(lang Language, text, marker string) bool {
	if marker == "" {
		return false
	}
	text = strings.TrimPrefix(text, "\ufeff")
	switch lang {
	case LangScript, LangData:
		return scanLeadingComments(text, marker, lang == LangScript)
	case LangProse:
		return scanLeadingHTMLComments(text, marker)
	default:
		return false
	}
}

func scanLeadingComments(text, marker string, allowShebang bool) bool {
	if allowShebang && strings.HasPrefix(text, "#!") {
		text = skipLine(text)
	}
	for {
		text = strings.TrimLeft(text, " \t\r\n")
		switch {
		case strings.HasPrefix(text, "//"):
			body, rest, _ := strings.Cut(text[2:], "\n")
			if directiveMatches(body, marker) {
				return true
			}
			text = rest
		case strings.HasPrefix(text, "/*"):
			body, rest, ok := strings.Cut(text[2:], "*/")
			if !ok {
				return false
			}
			if directiveMatches(strings.TrimLeft(body, "*"), marker) {
				return true
			}
			text = rest
		default:
			return false
		}
	}
}

func scanLeadingHTMLComments(text, marker string) bool {
	for {
		text = strings.TrimLeft(text, " \t\r\n")
		if !strings.HasPrefix(text, "<!--") {
			return false
		}
		body, rest, ok := strings.Cut(text[4:], "-->")
		if !ok {
			return false
		}
		if directiveMatches(body, marker) {
			return true
		}
		text = rest
	}
}

func directiveMatches(body, marker string) bool {
	fields := strings.Fields(body)
	return len(fields) > 0 && fields[0] == marker
}

func skipLine(text string) string {
	if _, rest, ok := strings.Cut(text, "\n"); ok {
		return rest
	}
	return ""
}
