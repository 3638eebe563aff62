// Package validation provides input sanitization and query parameter parsing.
package validation

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString cleans a string input by:
// - Trimming leading/trailing whitespace
// - Removing null bytes
// - Ensuring valid UTF-8 encoding
// Quotes, markup and SQL fragments are kept as raw text; every query is parameterized.
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	return strings.TrimSpace(s)
}

// SanitizeStringPtr sanitizes a string pointer, returning nil if the result is empty.
func SanitizeStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	sanitized := SanitizeString(*s)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}

// ContainsControlChars checks if a string contains control characters
// (except for common whitespace like space, tab, newline).
func ContainsControlChars(s string) bool {
	for _, r := range s {
		if isStrippedControl(r) {
			return true
		}
	}
	return false
}

// RemoveControlChars removes control characters from a string,
// preserving common whitespace (space, tab, newline, carriage return).
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if isStrippedControl(r) {
			return -1
		}
		return r
	}, s)
}

func isStrippedControl(r rune) bool {
	return unicode.IsControl(r) && r != ' ' && r != '\t' && r != '\n' && r != '\r'
}

// SanitizeQueryParam cleans a filter value such as the session type or a search term.
func SanitizeQueryParam(s string) string {
	return RemoveControlChars(SanitizeString(s))
}

// ParseIntParam parses an integer query parameter with bounds checking.
// Returns the default value if parsing fails, or the nearest bound when out of range.
func ParseIntParam(s string, defaultVal, minVal, maxVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// ParseBoolParam parses a boolean query parameter, returning defaultVal when
// the value is empty or not recognized.
func ParseBoolParam(s string, defaultVal bool) bool {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// ParseID parses a positive integer path segment.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
