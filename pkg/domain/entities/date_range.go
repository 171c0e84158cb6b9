package entities

import (
	"fmt"
	"time"
)

// DateRange is an inclusive, date-only window [Start, End]
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange creates a validated DateRange. Both bounds are truncated to dates.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: dateOf(start), End: dateOf(end)}
	if r.Start.IsZero() || r.End.IsZero() {
		return DateRange{}, fmt.Errorf("date range bounds cannot be empty")
	}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("date range end %s is before start %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return r, nil
}

// Contains reports whether the date of t falls inside the window
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := dateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the inclusive number of calendar days in the window
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// String formats the window as "YYYY-MM-DD..YYYY-MM-DD"
func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

func dateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
