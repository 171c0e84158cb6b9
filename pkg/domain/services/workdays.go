package services

import (
	"strings"
	"time"
)

// dateLayouts are the date spellings seen in repair-ticket exports
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006.01.02",
	"2006.1.2",
	"20060102",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/2006",
	// workbook date cells rendered with Excel's short formats
	"1/2/06 15:04",
	"1/2/06",
	"01-02-06",
	"01-02-06 15:04",
}

// DateOnly truncates t to a UTC calendar date. The zero time stays zero.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a ticket date cell into a date-only value.
// Returns false for blank or unrecognised input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), true
		}
	}
	return time.Time{}, false
}

// WorkingDays counts the Monday-Friday dates in [start, end] inclusive.
// Returns 0 when either bound is missing or start is after end, and at
// least 1 otherwise (a weekend-only span still counts as one day).
func WorkingDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	start, end = DateOnly(start), DateOnly(end)
	if start.After(end) {
		return 0
	}

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	if count < 1 {
		return 1
	}
	return count
}

// CalendarDaysBetween returns the signed number of calendar days from a to b
func CalendarDaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
