package textutil

import "strings"

// Slug converts a value into a lowercase URL-safe token. Letters and digits are
// kept, apostrophes and periods are dropped, and every other run of characters
// becomes a single hyphen. Returns "unknown" for empty input.
func Slug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '\'' || r == '.':
		default:
			pendingHyphen = true
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
