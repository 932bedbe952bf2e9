// Package dates centralizes calendar-date handling. The engine works
// in pure calendar dates (ISO YYYY-MM-DD, no timezone arithmetic);
// time.Time values produced here are always UTC midnight.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layout is the wire format for all persisted dates.
const Layout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDate reports whether s is a strict YYYY-MM-DD date string.
func IsDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(Layout, s)
	return err == nil
}

// Parse converts an ISO date string to UTC midnight.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Format converts a time to its ISO date string.
func Format(t time.Time) string { return t.Format(Layout) }

// AddDays returns t shifted by n calendar days.
func AddDays(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

// DaysBetween returns the whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// SplitDateTime splits a date that may carry an embedded time
// component ("2024-01-02T15:04") into its date and time parts. A pure
// date comes back unchanged with an empty time.
func SplitDateTime(s string) (date, clock string) {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
