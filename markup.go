package quickmatch

import "strings"

// Delimiters wrapped around every matched character in Result.Markup.
const (
	BoldOpen  = "<b>"
	BoldClose = "</b>"
)

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeMarkup escapes the metacharacters '&', '<' and '>' in s so it can
// be embedded literally in markup output. Replacement happens in a single
// pass: text produced by one replacement is never escaped again. Quotes are
// left alone, so the result is not safe inside attribute values.
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}

// renderMarkup renders s with each matched rune wrapped in the bold
// delimiters and all literal text escaped. positions must be ascending rune
// indices into s.
func renderMarkup(s string, positions []int) string {
	if len(positions) == 0 {
		return EscapeMarkup(s)
	}
	var sb strings.Builder
	sb.Grow(len(s) + len(positions)*(len(BoldOpen)+len(BoldClose)))
	next, idx := 0, 0
	for _, r := range s {
		open := next < len(positions) && positions[next] == idx
		if open {
			sb.WriteString(BoldOpen)
			next++
		}
		writeEscapedRune(&sb, r)
		if open {
			sb.WriteString(BoldClose)
		}
		idx++
	}
	return sb.String()
}

func writeEscapedRune(sb *strings.Builder, r rune) {
	switch r {
	case '&':
		sb.WriteString("&amp;")
	case '<':
		sb.WriteString("&lt;")
	case '>':
		sb.WriteString("&gt;")
	default:
		sb.WriteRune(r)
	}
}
