package spamcheck

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize reduces raw message text to its canonical comparison form:
// lowercased, diacritics stripped, punctuation folded to spaces, and
// whitespace collapsed. It is pure and never fails; normalizing an
// already-normalized string is a no-op.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	lowered := strings.ToLower(raw)
	decomposed := norm.NFD.String(lowered)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from NFD, drop it
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
