package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespace = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace and trims the result
func CleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// TruncateText truncates text to a maximum number of runes, preserving word boundaries
func TruncateText(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	truncated := string([]rune(text)[:maxLength])
	lastSpace := strings.LastIndex(truncated, " ")

	if lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}

// JoinURL appends a rooted path to a base URL without doubling the slash.
// An empty base returns the path unchanged.
func JoinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimSuffix(base, "/") + path
}

// HasAnyPrefix reports whether s starts with one of prefixes
func HasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
