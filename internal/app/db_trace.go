package app

import (
	"strings"
	"unicode/utf8"
)

const maxTracedQueryLength = 512

// formatDBQueryForTrace is the statement recorded on db spans: single-spaced,
// with quoted literals replaced by '?', capped at maxTracedQueryLength bytes.
func formatDBQueryForTrace(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case inLiteral && c == '\'':
			if i+1 < len(query) && query[i+1] == '\'' {
				i++
				continue
			}
			inLiteral = false
			b.WriteString("?'")
		case inLiteral:
		case c == '\'':
			inLiteral = true
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	out := b.String()

	if len(out) <= maxTracedQueryLength {
		return out
	}
	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(out[cut]) {
		cut--
	}
	return out[:cut] + "..."
}
