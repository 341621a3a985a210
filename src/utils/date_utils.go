package utils

import (
	"fmt"
	"time"
)

// DefaultDateFormat is the ISO date layout used by the warehouse and the API.
const DefaultDateFormat = "2006-01-02"

// ParseDate parses an ISO date string into a UTC midnight time.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s', expected YYYY-MM-DD: %w", dateStr, err)
	}
	return t, nil
}

// FormatDate renders t as an ISO date string.
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}

// TruncateToDay drops the clock part of t, keeping its calendar date in UTC.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// InWindow reports whether start < t <= end, comparing calendar dates.
func InWindow(t, start, end time.Time) bool {
	day := TruncateToDay(t)
	return day.After(TruncateToDay(start)) && !day.After(TruncateToDay(end))
}
