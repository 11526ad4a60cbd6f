// Package textnorm folds free text into comparable forms.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("Pokémon" → "pokemon").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Words splits s into folded runs of letters, discarding runs of minLen
// runes or fewer.
func Words(s string, minLen int) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	words := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > minLen {
			words = append(words, f)
		}
	}
	return words
}

// WordSet returns the distinct Words of s.
func WordSet(s string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range Words(s, minLen) {
		set[w] = struct{}{}
	}
	return set
}

// Key collapses s into a comparison key: folded, with everything but letters
// and digits removed, and single spaces between words.
func Key(s string) string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
