package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateMarker validates a diagram delimiter marker.
// The marker must be exactly three characters of the same punctuation rune,
// so that "starts with marker" scanning stays unambiguous.
func ValidateMarker(marker string) error {
	if marker == "" {
		return New(ErrCodeInvalidMarker, "delimiter marker cannot be empty")
	}
	if utf8.RuneCountInString(marker) != 3 {
		return New(ErrCodeInvalidMarker, "delimiter marker must be exactly 3 characters, got %q", marker)
	}
	first, _ := utf8.DecodeRuneInString(marker)
	for _, r := range marker {
		if r != first {
			return New(ErrCodeInvalidMarker, "delimiter marker must repeat a single character, got %q", marker)
		}
		if unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return New(ErrCodeInvalidMarker, "delimiter marker must be punctuation, got %q", marker)
		}
	}
	return nil
}

// ValidateRoute validates a site-rooted image route for safety.
// It prevents path traversal and ensures the route can be joined onto the
// site output root without escaping it.
func ValidateRoute(route string) error {
	if route == "" {
		return New(ErrCodeInvalidPath, "image route cannot be empty")
	}
	if len(route) > 500 {
		return New(ErrCodeInvalidPath, "image route too long (max 500 characters)")
	}
	for _, r := range route {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "image route contains control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(route, pattern) {
			return New(ErrCodeInvalidPath, "image route contains invalid sequence: %q", pattern)
		}
	}

	return nil
}
