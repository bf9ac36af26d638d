package extractor

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// dateLayouts are tried in order before falling back to dateparse.
// Values without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate parses a date string found in markup. It reports false instead
// of failing for empty, garbage or out-of-range values.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return parsed, true
		}
	}

	// dateparse has panicked on pathological input in the past
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	// Partial values such as "3/4" come back with year 0
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || parsed.Year() < 1 {
		return time.Time{}, false
	}
	return parsed, true
}
