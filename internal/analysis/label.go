package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatLabel turns a payload key into a display label: underscores become
// spaces and every word starts with an upper-case letter.
func FormatLabel(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
