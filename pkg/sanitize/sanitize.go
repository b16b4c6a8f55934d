// Package sanitize provides string cleanup helpers for stored error messages
// and hosting-platform metadata.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

// MaxErrorMessageLength is the maximum length for stored error messages.
const MaxErrorMessageLength = 4096

// ErrorMessage truncates and strips control characters from error messages
// before storage.
func ErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// IsASCII reports whether s contains only 7-bit characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// ASCIIOr returns s unless it contains any non-ASCII character, in which case
// the fallback token is returned. The upload platform rejects some encodings,
// so no transliteration is attempted.
func ASCIIOr(s, fallback string) string {
	if IsASCII(s) {
		return s
	}
	return fallback
}

// Truncate caps s at max runes.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// FirstSegment splits s on newlines, commas and slashes and returns the first
// non-empty trimmed segment capped at 30 runes, or the fallback when nothing
// remains.
func FirstSegment(s, fallback string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == ',' || r == '/'
	})
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			return Truncate(p, 30)
		}
	}
	return Truncate(fallback, 30)
}
