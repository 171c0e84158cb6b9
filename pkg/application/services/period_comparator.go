package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	domain "github.com/vsinha/repairkpi/pkg/domain/services"
)

const quarterShiftDays = 90

// PeriodComparator compares a date window against the preceding window,
// the window 90 days earlier and the same window one year earlier.
type PeriodComparator struct {
	classifier *domain.TypeClassifier
	costs      *domain.PartCostLookup
}

// NewPeriodComparator creates a comparator; nil collaborators use defaults
func NewPeriodComparator(classifier *domain.TypeClassifier, costs *domain.PartCostLookup) *PeriodComparator {
	if classifier == nil {
		classifier = domain.NewTypeClassifier()
	}
	if costs == nil {
		costs = domain.EmptyPartCostLookup()
	}
	return &PeriodComparator{classifier: classifier, costs: costs}
}

// Compare aggregates the full, unfiltered case list over current and its
// three baseline windows.
func (p *PeriodComparator) Compare(cases []*entities.Case, current entities.DateRange) *dto.PeriodComparison {
	cur := p.Aggregate(cases, current)
	mom, qoq, yoy := BaselineWindows(current)

	return &dto.PeriodComparison{
		PeriodDays:         current.Days(),
		Current:            cur,
		MonthOverMonth:     p.compareWith(cases, cur, mom),
		QuarterOverQuarter: p.compareWith(cases, cur, qoq),
		YearOverYear:       p.compareWith(cases, cur, yoy),
	}
}

// BaselineWindows returns the immediately preceding window of equal length,
// the window shifted back 90 days and the window shifted back one calendar
// year (day of month clamped, so Feb 29 maps to Feb 28).
func BaselineWindows(r entities.DateRange) (mom, qoq, yoy entities.DateRange) {
	days := r.Days()
	momEnd := r.Start.AddDate(0, 0, -1)
	mom = entities.DateRange{Start: momEnd.AddDate(0, 0, -(days - 1)), End: momEnd}
	qoq = entities.DateRange{
		Start: r.Start.AddDate(0, 0, -quarterShiftDays),
		End:   r.End.AddDate(0, 0, -quarterShiftDays),
	}
	yoy = entities.DateRange{Start: shiftYears(r.Start, -1), End: shiftYears(r.End, -1)}
	return mom, qoq, yoy
}

// shiftYears moves t by years, clamping the day to the target month's length
func shiftYears(t time.Time, years int) time.Time {
	y := t.Year() + years
	lastDay := time.Date(y, t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return time.Date(y, t.Month(), min(t.Day(), lastDay), 0, 0, 0, 0, time.UTC)
}

// Aggregate computes the headline numbers of the dated cases inside r
func (p *PeriodComparator) Aggregate(cases []*entities.Case, r entities.DateRange) dto.PeriodAggregate {
	agg := dto.PeriodAggregate{Range: r, GrossMargin: decimal.Zero}
	tatSum, over := 0, 0
	for _, c := range cases {
		if !c.IsDated() || !r.Contains(c.CompletionDate) {
			continue
		}
		agg.Cases++
		tatSum += c.TAT
		if p.classifier.IsSLAOver(c.ServiceType, c.TAT) {
			over++
		}
		agg.GrossMargin = agg.GrossMargin.Add(caseMargin(c, p.costs))
	}
	agg.AvgTAT = average(float64(tatSum), agg.Cases)
	agg.SLAOverRate = percent(over, agg.Cases)
	return agg
}

func (p *PeriodComparator) compareWith(cases []*entities.Case, cur dto.PeriodAggregate, window entities.DateRange) dto.Comparison {
	base := p.Aggregate(cases, window)
	return dto.Comparison{
		Baseline: base,
		Delta: dto.PeriodDelta{
			Cases:       percentChange(decimal.NewFromInt(int64(cur.Cases)), decimal.NewFromInt(int64(base.Cases))),
			GrossMargin: percentChange(cur.GrossMargin, base.GrossMargin),
			AvgTAT:      percentChange(decimal.NewFromFloat(cur.AvgTAT), decimal.NewFromFloat(base.AvgTAT)),
			SLAOverRate: round1(cur.SLAOverRate - base.SLAOverRate),
		},
	}
}

// caseMargin is revenue less external cost and, outside external repairs,
// parts cost.
func caseMargin(c *entities.Case, costs *domain.PartCostLookup) decimal.Decimal {
	margin := c.Revenue.Sub(c.ExternalRepairCost)
	if c.ServiceType != entities.ExternalRepair {
		margin = margin.Sub(costs.PartsCost(c))
	}
	return margin
}
