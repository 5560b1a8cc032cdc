package util

import (
	"regexp"
	"strings"
	"unicode"
)

// GenerateSlug creates a URL-friendly slug from a title
func GenerateSlug(title string) string {
	// Convert to lowercase
	slug := strings.ToLower(title)

	// Replace spaces and special characters with hyphens
	reg := regexp.MustCompile(`[^a-z0-9]+`)
	slug = reg.ReplaceAllString(slug, "-")

	// Remove leading/trailing hyphens
	slug = strings.Trim(slug, "-")

	// Limit length
	if len(slug) > 50 {
		slug = slug[:50]
		slug = strings.Trim(slug, "-")
	}

	return slug
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
// Rune-safe so multi-byte characters are never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// Hashtag converts a phrase into a CamelCase hashtag, e.g. "sea view" -> "#SeaView".
// Returns an empty string when nothing usable remains.
func Hashtag(phrase string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range phrase {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upperNext {
				b.WriteRune(unicode.ToUpper(r))
				upperNext = false
			} else {
				b.WriteRune(r)
			}
		default:
			upperNext = true
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}
