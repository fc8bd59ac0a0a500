// Package textutil holds the string shaping shared by the renderer and the
// summarizer.
package textutil

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// Trim returns text unchanged when it fits in maxChars runes. Longer text is
// cut so that the result, ellipsis included, is exactly maxChars runes.
func Trim(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	if maxChars <= len(ellipsis) {
		return ellipsis[:maxChars]
	}
	runes := []rune(text)
	return string(runes[:maxChars-len(ellipsis)]) + ellipsis
}

// NormalizeWhitespace collapses every whitespace run to a single space and
// trims both ends.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
