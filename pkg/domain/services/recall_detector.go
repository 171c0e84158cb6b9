package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// DefaultRecallWindowDays is the repeat-repair window in calendar days
const DefaultRecallWindowDays = 14

// RecallDetector flags repeat repairs of the same device
type RecallDetector struct {
	windowDays int
}

// NewRecallDetector creates a detector with the given window; values below 1
// fall back to DefaultRecallWindowDays.
func NewRecallDetector(windowDays int) *RecallDetector {
	if windowDays < 1 {
		windowDays = DefaultRecallWindowDays
	}
	return &RecallDetector{windowDays: windowDays}
}

// WindowDays returns the configured window
func (rd *RecallDetector) WindowDays() int {
	return rd.windowDays
}

// Detect returns a copy of cases sorted by completion date (undated first,
// ties in input order) with recall flags set. The input is not modified.
//
// Each dated case is compared only with the previous dated case of the same
// trackable serial. Both must be Repair-category and at most windowDays apart.
// Undated cases never take part in the correlation.
func (rd *RecallDetector) Detect(cases []*entities.Case) []*entities.Case {
	out := entities.CloneCases(cases)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CompletionDate, out[j].CompletionDate
		if a.IsZero() || b.IsZero() {
			return a.IsZero() && !b.IsZero()
		}
		return a.Before(b)
	})

	lastBySerial := make(map[string]*entities.Case)
	for _, c := range out {
		c.IsRecall = false
		c.RecallReason = ""
		c.RecallReferenceID = ""

		if !c.IsDated() {
			continue
		}
		serial := NormalizeSerial(c.SerialNumber)
		if !IsTrackableSerial(serial) {
			continue
		}

		if prev, ok := lastBySerial[serial]; ok {
			gap := CalendarDaysBetween(prev.CompletionDate, c.CompletionDate)
			if gap <= rd.windowDays && c.ServiceType.IsRepair() && prev.ServiceType.IsRepair() {
				c.IsRecall = true
				c.RecallReason = fmt.Sprintf("%d天內 (%d天)", rd.windowDays, gap)
				c.RecallReferenceID = prev.ID
			}
		}
		lastBySerial[serial] = c
	}
	return out
}
