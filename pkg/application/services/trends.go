package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	domain "github.com/vsinha/repairkpi/pkg/domain/services"
)

// DefaultTrendMonths is how many trailing months MonthlyTrends reports
const DefaultTrendMonths = 6

const (
	surgeThreshold      = 0.3
	recallSpikeFactor   = 1.5
	recallSpikeMinRate  = 3.0
	minMonthsForAnomaly = 3
)

type monthTally struct {
	cases      int
	tatSum     int
	recallNum  int
	recallBase int
	margin     decimal.Decimal
}

// MonthlyTrends groups dated cases by calendar month and returns the last
// months entries in ascending order.
func MonthlyTrends(cases []*entities.Case, costs *domain.PartCostLookup, months int) []dto.MonthlyTrend {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	tallies := make(map[string]*monthTally)
	for _, c := range cases {
		if !c.IsDated() {
			continue
		}
		key := PeriodLabel(c.CompletionDate, Monthly)
		t, ok := tallies[key]
		if !ok {
			t = &monthTally{margin: decimal.Zero}
			tallies[key] = t
		}
		t.cases++
		t.tatSum += c.TAT
		t.margin = t.margin.Add(caseMargin(c, costs))
		if c.ServiceType.CountsTowardRecallRate() {
			t.recallBase++
			if c.IsRecall {
				t.recallNum++
			}
		}
	}

	keys := make([]string, 0, len(tallies))
	for k := range tallies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > months {
		keys = keys[len(keys)-months:]
	}

	out := make([]dto.MonthlyTrend, 0, len(keys))
	for _, k := range keys {
		t := tallies[k]
		out = append(out, dto.MonthlyTrend{
			Month:       k,
			Cases:       t.cases,
			AvgTAT:      average(float64(t.tatSum), t.cases),
			RecallRate:  percent(t.recallNum, t.recallBase),
			GrossMargin: t.margin,
		})
	}
	return out
}

// DetectAnomalies flags a case surge (>30% over the previous month) and a
// recall spike (>1.5x the previous rate and above 3%) in the latest month.
// At least three months of trend are required.
func DetectAnomalies(trends []dto.MonthlyTrend) []dto.Anomaly {
	if len(trends) < minMonthsForAnomaly {
		return nil
	}
	last, prev := trends[len(trends)-1], trends[len(trends)-2]

	var alerts []dto.Anomaly
	if prev.Cases > 0 {
		growth := float64(last.Cases-prev.Cases) / float64(prev.Cases)
		if growth > surgeThreshold {
			pct := roundTo(growth*100, 0)
			alerts = append(alerts, dto.Anomaly{
				Kind:    dto.AnomalyCaseSurge,
				Month:   last.Month,
				Value:   pct,
				Message: fmt.Sprintf("案量突增 %.0f%%（%s）", pct, last.Month),
			})
		}
	}
	if last.RecallRate > prev.RecallRate*recallSpikeFactor && last.RecallRate > recallSpikeMinRate {
		alerts = append(alerts, dto.Anomaly{
			Kind:    dto.AnomalyRecallSpike,
			Month:   last.Month,
			Value:   last.RecallRate,
			Message: fmt.Sprintf("返修率飆升至 %.1f%%（%s）", last.RecallRate, last.Month),
		})
	}
	return alerts
}
