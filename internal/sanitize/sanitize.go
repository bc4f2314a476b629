// Package sanitize cleans caller-supplied strings before they reach logs,
// the audit file or the generation trace.
package sanitize

import (
	"strings"
	"unicode"
)

// MaxValueLength bounds a logged value, in runes.
const MaxValueLength = 64

// Value returns s on one line: control characters are dropped, runs of
// whitespace collapse to a single space and the result is cut to
// MaxValueLength runes with a trailing "...".
func Value(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	return truncate(b.String(), MaxValueLength)
}

// Choice normalizes a menu answer such as a relation choice for lookup:
// it is sanitized, trimmed and lower-cased.
func Choice(s string) string {
	return strings.ToLower(Value(s))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
