// Package timeutil provides calendar-day utilities in the device-local
// timezone. The daily quiz reset boundary and the streak rule both work in
// local calendar days, so all comparisons here go through time.Local.
// No external dependencies - uses only standard library.
package timeutil

import (
	"math"
	"time"
)

// DateLayout is the canonical format for persisted date markers.
const DateLayout = "2006-01-02"

// Now returns the current time in the device-local timezone.
func Now() time.Time {
	return time.Now().Local()
}

// StartOfDay returns the start of the day (00:00:00) in local time.
func StartOfDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in local time.
func EndOfDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, time.Local)
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	al, bl := a.Local(), b.Local()
	return al.Year() == bl.Year() && al.Month() == bl.Month() && al.Day() == bl.Day()
}

// IsToday reports whether t falls on the current local calendar day.
func IsToday(t time.Time) bool {
	return SameDay(t, Now())
}

// IsYesterday reports whether t falls on the local calendar day before today.
func IsYesterday(t time.Time) bool {
	return SameDay(t, Now().AddDate(0, 0, -1))
}

// DaysBetween returns the number of whole calendar days from a to b.
// Positive when b is after a, negative when before, zero for the same day.
// Rounds rather than truncates: a DST transition makes a local day 23 or
// 25 hours long, and truncation would miscount across it.
func DaysBetween(a, b time.Time) int {
	start := StartOfDay(a)
	end := StartOfDay(b)
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// FormatDate renders t as a persisted date marker.
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// ParseDate parses a persisted date marker in the local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}
