// Package fuzzy provides loose text folding for comparing user-visible
// music strings that differ only in case, diacritics or punctuation.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Fold collapses a string to a canonical comparison key: NFKD
// decomposition with combining marks stripped, punctuation and runs of
// whitespace squeezed to single spaces, lowercased and trimmed.
func Fold(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(strings.ToLower(text))
}

// Equal reports whether two strings fold to the same key.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}
