package textutil

import "strings"

// Clean collapses every run of whitespace, newlines and non-breaking spaces
// included, into a single space. Other characters pass through unchanged.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// Join concatenates the cleaned parts with single spaces, skipping parts that
// are empty after cleaning. It is used to merge a cell split across a page
// break with the text that preceded it.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := Clean(part); cleaned != "" {
			kept = append(kept, cleaned)
		}
	}
	return strings.Join(kept, " ")
}

// Truncate shortens text to at most limit runes for log output.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
