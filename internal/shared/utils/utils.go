// Package utils holds small formatting and query helpers shared by handlers
// and repositories.
package utils

import (
	"fmt"
	"math"
	"net/url"

	"run-tracker/internal/shared/validation"
)

// FormatDuration formats duration in seconds to H:MM:SS format.
func FormatDuration(durationSec *int64) string {
	if durationSec == nil {
		return ""
	}
	d := *durationSec
	hours := d / 3600
	minutes := (d % 3600) / 60
	seconds := d % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

// PtrToString converts a string pointer to a string, returning empty string if nil.
func PtrToString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParsePaginationParams parses limit and offset from query parameters.
// Out-of-range values are clamped; a maxLimit of zero leaves limit unbounded.
func ParsePaginationParams(query url.Values, defaultLimit int, maxLimit int) (int, int) {
	if maxLimit <= 0 {
		maxLimit = math.MaxInt32
	}
	limit := validation.ParseIntParam(query.Get("limit"), defaultLimit, 0, maxLimit)
	offset := validation.ParseIntParam(query.Get("offset"), 0, 0, math.MaxInt32)
	return limit, offset
}
