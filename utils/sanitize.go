package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

const maxSanitizeRounds = 5

// SanitizeText strips any markup from user supplied plain text and trims surrounding space.
// Entities are decoded so "&" and quotes survive, and the policy is re-applied until decoding
// yields no new markup; input that never settles is returned in escaped form.
func SanitizeText(input string) string {
	current := input
	for i := 0; i < maxSanitizeRounds; i++ {
		cleaned := sanitizer.Sanitize(current)
		decoded := html.UnescapeString(cleaned)
		if decoded == current {
			return strings.TrimSpace(decoded)
		}
		current = decoded
	}
	return strings.TrimSpace(sanitizer.Sanitize(current))
}
