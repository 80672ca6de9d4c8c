// Package textnorm canonicalizes raw record text for pattern matching.
//
// OCR-derived medical records mix encodings, accents, and line endings.
// Every pattern in the engine matches against the normalized form; only
// date literals are read back from the original text to preserve their
// dd/mm/yyyy surface form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
)

// Normalize unifies line endings, strips diacritics, and lower-cases.
// It is total and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		// The remover never fails on valid UTF-8; on malformed input
		// fall back to the raw string so normalization stays total.
		out = s
	}
	return strings.ToLower(out)
}
