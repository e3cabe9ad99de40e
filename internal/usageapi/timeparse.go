package usageapi

import (
	"strings"
	"time"
)

// flexibleLayouts cover ISO 8601 variants the strict RFC 3339 parser
// rejects: missing zone, compact zone offsets, space separator.
var flexibleLayouts = []string{
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05Z07",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseResetTime parses a resets_at value. Strict RFC 3339 is tried
// first; zone-less values are taken as UTC.
func ParseResetTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range flexibleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
