package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// SanitizeText cleans free text reported by a device before it is stored and
// shown to users: markup and control characters are removed, whitespace is
// trimmed and the result is cut to maxRunes.
func SanitizeText(input string, maxRunes int) string {
	stripped := htmlTag.ReplaceAllString(input, "")

	var result strings.Builder
	count := 0
	for _, r := range stripped {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			continue
		}
		if unicode.IsSpace(r) {
			r = ' '
		}
		if maxRunes > 0 && count >= maxRunes {
			break
		}
		result.WriteRune(r)
		count++
	}

	return strings.TrimSpace(result.String())
}
