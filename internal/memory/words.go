package memory

import (
	"strings"
	"unicode"
)

// Words splits s on anything that is not a letter, digit or apostrophe.
func Words(s string) []string {
	return strings.FieldsFunc(s, isWordBreak)
}

// Substitute replaces whole-word occurrences of "it", "that" and "this"
// with target. With legacy set it does a raw substring replace instead,
// which also rewrites matches inside longer words.
func Substitute(lower, target string, legacy bool) string {
	if legacy {
		lower = strings.ReplaceAll(lower, "it", target)
		lower = strings.ReplaceAll(lower, "that", target)
		return strings.ReplaceAll(lower, "this", target)
	}

	var b strings.Builder
	b.Grow(len(lower))

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		switch w := lower[start:end]; w {
		case RefIt, RefThat, RefThis:
			b.WriteString(target)
		default:
			b.WriteString(w)
		}
		start = -1
	}

	for i, r := range lower {
		if isWordBreak(r) {
			flush(i)
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(lower))

	return b.String()
}

func isWordBreak(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
}
