// Package strcase converts Go identifiers into the keys used in API error bodies.
package strcase

import (
	"strings"
	"unicode"
)

// Words splits a Go identifier on case changes, keeping initialisms whole:
// "RequestID" gives [Request ID] and "OTPCode" gives [OTP Code]. Digits stay
// attached to the word before them. Underscores and dots also split.
func Words(s string) []string {
	runes := []rune(s)
	var (
		words []string
		start = -1
	)

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if r == '_' || r == '.' || unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}

		if unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				flush(i)
				start = i
			}
		}
	}
	flush(len(runes))

	return words
}

// ToLowerSnake joins Words of s in lower case with underscores.
func ToLowerSnake(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}
