// Package textnorm folds Vietnamese text for accent-insensitive matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ and Đ carry a stroke, not a combining mark, so decomposition leaves them alone.
var strokeReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// Fold lower-cases s and strips diacritics: Vietnamese vowels fold to their
// base Latin letters, đ folds to d, and stray combining marks are dropped.
func Fold(s string) string {
	s = strokeReplacer.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Contains reports whether needle occurs in haystack, ignoring case and
// diacritics.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
