package allocator

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidCutoff is returned when the cutoff date cannot be parsed
var ErrInvalidCutoff = errors.New("invalid cutoff date")

// Layouts tried by ParseDate, most specific first
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"2006.1.2",
	"2006. 1. 2.",
	"2006. 1. 2",
	"01/02/2006",
	"1/2/2006",
	"20060102",
}

// ParseDate parses a join date in any of the accepted layouts. The second
// return value is false for blank or unrecognised values.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCutoff parses a caller-supplied cutoff date
func ParseCutoff(raw string) (time.Time, error) {
	t, ok := ParseDate(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCutoff, raw)
	}
	return t, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
