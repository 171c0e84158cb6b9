package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// Granularity is the bucket size of drill-down labels
type Granularity int

const (
	Monthly Granularity = iota
	Quarterly
	Yearly
)

// String method for Granularity enum
func (g Granularity) String() string {
	switch g {
	case Quarterly:
		return "quarter"
	case Yearly:
		return "year"
	default:
		return "month"
	}
}

// ParseGranularity accepts month, quarter or year
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month", "monthly":
		return Monthly, nil
	case "quarter", "quarterly":
		return Quarterly, nil
	case "year", "yearly":
		return Yearly, nil
	default:
		return Monthly, fmt.Errorf("unknown granularity %q", s)
	}
}

// PeriodLabel formats the bucket of t: "2024-01", "2024-Q1" or "2024年"
func PeriodLabel(t time.Time, g Granularity) string {
	switch g {
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())+2)/3)
	case Yearly:
		return fmt.Sprintf("%d年", t.Year())
	default:
		return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
	}
}

// FilterByRange keeps the dated cases whose completion date is inside r
func FilterByRange(cases []*entities.Case, r entities.DateRange) []*entities.Case {
	return lo.Filter(cases, func(c *entities.Case, _ int) bool {
		return c.IsDated() && r.Contains(c.CompletionDate)
	})
}

// DrillDown keeps the dated cases whose bucket label equals label
func DrillDown(cases []*entities.Case, g Granularity, label string) []*entities.Case {
	return lo.Filter(cases, func(c *entities.Case, _ int) bool {
		return c.IsDated() && PeriodLabel(c.CompletionDate, g) == label
	})
}

// DefaultRange runs from the first of the month of the latest completion
// date through that date. It reports false when no case is dated.
func DefaultRange(cases []*entities.Case) (entities.DateRange, bool) {
	dated := lo.Filter(cases, func(c *entities.Case, _ int) bool { return c.IsDated() })
	if len(dated) == 0 {
		return entities.DateRange{}, false
	}
	latest := lo.MaxBy(dated, func(a, b *entities.Case) bool {
		return a.CompletionDate.After(b.CompletionDate)
	}).CompletionDate
	start := time.Date(latest.Year(), latest.Month(), 1, 0, 0, 0, 0, time.UTC)
	r, err := entities.NewDateRange(start, latest)
	if err != nil {
		return entities.DateRange{}, false
	}
	return r, true
}
