package services

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	domain "github.com/vsinha/repairkpi/pkg/domain/services"
)

// ErrNilWeightTable is returned when an aggregation is asked to run without weights
var ErrNilWeightTable = errors.New("weight table cannot be nil")

// DefaultLaborRatePerPoint is the labor cost charged per productivity point
const DefaultLaborRatePerPoint = 1179

const (
	topModelCount        = 5
	topPartCount         = 10
	costWeightedCount    = 10
	reliabilityCount     = 10
	inventoryCount       = 15
	skillMatrixModels    = 8
	flatSLAThreshold     = 5
	safetyStockFactor    = 1.5
	daysPerForecastMonth = 30
)

// StatsAggregator computes the KPI bundle over an already filtered case set.
// It never mutates its input and is safe for concurrent use.
type StatsAggregator struct {
	classifier *domain.TypeClassifier
	costs      *domain.PartCostLookup
	laborRate  decimal.Decimal
}

// NewStatsAggregator creates an aggregator. Nil collaborators fall back to
// the default classifier and an empty price table; a non-positive labor
// rate uses DefaultLaborRatePerPoint.
func NewStatsAggregator(classifier *domain.TypeClassifier, costs *domain.PartCostLookup, laborRate float64) *StatsAggregator {
	if classifier == nil {
		classifier = domain.NewTypeClassifier()
	}
	if costs == nil {
		costs = domain.EmptyPartCostLookup()
	}
	if laborRate <= 0 {
		laborRate = DefaultLaborRatePerPoint
	}
	return &StatsAggregator{
		classifier: classifier,
		costs:      costs,
		laborRate:  decimal.NewFromFloat(laborRate),
	}
}

type partKey struct {
	number entities.PartNumber
	name   string
}

type modelSerialKey struct {
	model  string
	serial string
}

type typeTally struct {
	cases int
	over  int
	cost  decimal.Decimal
}

// accumulator holds the running totals of one Compute call
type accumulator struct {
	engineers     []*dto.EngineerStats
	engineerIndex map[string]int

	fin          dto.Financials
	totalPoints  float64
	tatSum       int
	pendingSum   int
	backlogSum   int
	constSum     float64
	recallNum    int
	recallBase   int
	slaOver      int
	flatOutliers int

	types      map[entities.ServiceType]*typeTally
	typeOrder  []entities.ServiceType
	models     *orderedCounter[string]
	parts      *orderedCounter[partKey]
	skill      map[string]map[string]int
	skillEng   []string
	skillTotal *orderedCounter[string]

	mtbfModels  []string
	mtbfSerials map[string][]string
	mtbfDates   map[modelSerialKey][]time.Time
}

func newAccumulator() *accumulator {
	return &accumulator{
		engineerIndex: make(map[string]int),
		fin: dto.Financials{
			Revenue:      decimal.Zero,
			ExternalCost: decimal.Zero,
			PartsCost:    decimal.Zero,
			LaborCost:    decimal.Zero,
			GrossMargin:  decimal.Zero,
			WarrantyRepairsByType: map[entities.ServiceType]int{
				entities.GeneralRepair:   0,
				entities.DifficultRepair: 0,
				entities.ExternalRepair:  0,
			},
			WarrantyRepairsByBrand: map[string]int{
				string(domain.BrandPhilips): 0,
				string(domain.BrandResMed):  0,
				string(domain.BrandOther):   0,
			},
		},
		types:       make(map[entities.ServiceType]*typeTally),
		models:      newOrderedCounter[string](),
		parts:       newOrderedCounter[partKey](),
		skill:       make(map[string]map[string]int),
		skillTotal:  newOrderedCounter[string](),
		mtbfSerials: make(map[string][]string),
		mtbfDates:   make(map[modelSerialKey][]time.Time),
	}
}

// Compute builds the KPI bundle. Points are re-weighted with weights rather
// than taken from the cases. An empty case set returns (nil, nil).
func (a *StatsAggregator) Compute(cases []*entities.Case, weights entities.WeightTable) (*dto.Stats, error) {
	if weights == nil {
		return nil, ErrNilWeightTable
	}
	if len(cases) == 0 {
		return nil, nil
	}

	acc := newAccumulator()
	for _, c := range cases {
		a.fold(acc, c, weights.Weight(c.ServiceType))
	}

	n := len(cases)
	stats := &dto.Stats{
		TotalCases:      n,
		TotalPoints:     acc.totalPoints,
		TATSum:          acc.tatSum,
		AvgTAT:          average(float64(acc.tatSum), n),
		AvgPending:      average(float64(acc.pendingSum), n),
		AvgBacklog:      average(float64(acc.backlogSum), n),
		AvgConstruction: average(acc.constSum, n),
		RecallCount:     acc.recallNum,
		RecallBase:      acc.recallBase,
		RecallRate:      percent(acc.recallNum, acc.recallBase),
	}
	stats.FirstTimeFixRate = 100
	if acc.recallBase > 0 {
		stats.FirstTimeFixRate = percent(acc.recallBase-acc.recallNum, acc.recallBase)
	}

	fin := acc.fin
	fin.LaborCost = decimal.NewFromFloat(acc.totalPoints).Mul(a.laborRate)
	fin.GrossMargin = fin.Revenue.Sub(fin.ExternalCost).Sub(fin.PartsCost)
	fin.WarrantyRate = percent(fin.WarrantyCases, n)
	stats.Financials = fin

	stats.SLA = a.slaStats(acc, n)
	stats.CostPerRepair = fin.ExternalCost.Add(fin.PartsCost).Div(decimal.NewFromInt(int64(n))).Round(0)
	stats.CostByType = costByType(acc)

	stats.Reliability = reliability(acc)
	stats.MonthSpan = monthSpan(cases)
	stats.Inventory = a.inventory(acc, stats.MonthSpan)

	stats.Engineers = rankEngineers(acc.engineers)
	stats.Gini = GiniCoefficient(lo.Map(stats.Engineers, func(e dto.EngineerStats, _ int) int { return e.Cases }))
	if len(stats.Engineers) > 0 {
		top := stats.Engineers[0]
		stats.TopEngineer = &dto.NamedPoints{Name: top.Engineer, Points: top.Points}
	}
	stats.SkillMatrix = skillMatrix(acc)

	stats.TopModels = lo.Map(lo.Subset(acc.models.ranked(), 0, topModelCount), func(m string, _ int) dto.NameCount {
		return dto.NameCount{Name: m, Count: acc.models.count(m)}
	})
	usage := a.partUsage(acc)
	stats.TopParts = lo.Subset(usage, 0, topPartCount)
	stats.CostWeightedParts = costWeighted(usage)

	return stats, nil
}

func (a *StatsAggregator) fold(acc *accumulator, c *entities.Case, points float64) {
	idx, ok := acc.engineerIndex[c.Engineer]
	if !ok {
		idx = len(acc.engineers)
		acc.engineerIndex[c.Engineer] = idx
		acc.engineers = append(acc.engineers, &dto.EngineerStats{Engineer: c.Engineer})
	}
	eng := acc.engineers[idx]
	eng.Cases++
	eng.Points += points
	eng.TATSum += c.TAT

	acc.totalPoints += points
	acc.tatSum += c.TAT
	acc.pendingSum += c.PendingDays
	acc.backlogSum += c.BacklogDays
	acc.constSum += c.ConstructionDays

	if c.ServiceType.CountsTowardRecallRate() {
		eng.RecallBase++
		acc.recallBase++
		if c.IsRecall {
			eng.RecallNum++
			acc.recallNum++
		}
	}

	acc.fin.Revenue = acc.fin.Revenue.Add(c.Revenue)
	acc.fin.ExternalCost = acc.fin.ExternalCost.Add(c.ExternalRepairCost)

	if c.IsUnderWarranty {
		acc.fin.WarrantyCases++
		if c.ServiceType.IsRepair() {
			acc.fin.WarrantyRepairs++
			acc.fin.WarrantyRepairsByType[c.ServiceType]++
			acc.fin.WarrantyRepairsByBrand[string(domain.ClassifyBrand(c.Model))]++
		}
	}

	if c.TAT > flatSLAThreshold {
		acc.flatOutliers++
	}
	over := a.classifier.IsSLAOver(c.ServiceType, c.TAT)
	if over {
		acc.slaOver++
	}

	// external repair invoices already include the vendor's parts
	partsCost := decimal.Zero
	if c.ServiceType != entities.ExternalRepair {
		partsCost = a.costs.PartsCost(c)
	}
	acc.fin.PartsCost = acc.fin.PartsCost.Add(partsCost)

	tally, ok := acc.types[c.ServiceType]
	if !ok {
		tally = &typeTally{cost: decimal.Zero}
		acc.types[c.ServiceType] = tally
		acc.typeOrder = append(acc.typeOrder, c.ServiceType)
	}
	tally.cases++
	if over {
		tally.over++
	}
	tally.cost = tally.cost.Add(c.ExternalRepairCost).Add(partsCost)

	for _, p := range c.CountableParts() {
		if p.Name == "" {
			continue
		}
		acc.parts.add(partKey{number: p.PartNumber.Normalized(), name: p.Name}, 1)
	}

	if !hasModel(c.Model) {
		return
	}
	if !domain.ExcludedFromModelRanking(c.RawType) {
		acc.models.add(c.Model, 1)
	}
	if c.Engineer != "" {
		row, ok := acc.skill[c.Engineer]
		if !ok {
			row = make(map[string]int)
			acc.skill[c.Engineer] = row
			acc.skillEng = append(acc.skillEng, c.Engineer)
		}
		row[c.Model]++
	}
	acc.skillTotal.add(c.Model, 1)

	serial := domain.NormalizeSerial(c.SerialNumber)
	if !domain.IsTrackableSerial(serial) {
		return
	}
	serials, seenModel := acc.mtbfSerials[c.Model]
	if !seenModel {
		acc.mtbfModels = append(acc.mtbfModels, c.Model)
	}
	key := modelSerialKey{model: c.Model, serial: serial}
	dates, seenSerial := acc.mtbfDates[key]
	if !seenSerial {
		acc.mtbfSerials[c.Model] = append(serials, serial)
	}
	if c.IsDated() {
		dates = append(dates, c.CompletionDate)
	}
	acc.mtbfDates[key] = dates
}

func hasModel(model string) bool {
	return model != "" && model != "-"
}

func (a *StatsAggregator) slaStats(acc *accumulator, n int) dto.SLAStats {
	tiers := make([]dto.SLATier, 0, len(acc.typeOrder))
	for _, t := range acc.typeOrder {
		tally := acc.types[t]
		tiers = append(tiers, dto.SLATier{
			Type:       t,
			Label:      t.Label(),
			TargetDays: a.classifier.SLATargetDays(t),
			Cases:      tally.cases,
			Over:       tally.over,
			OverRate:   percent(tally.over, tally.cases),
		})
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].OverRate > tiers[j].OverRate })

	return dto.SLAStats{
		Over:         acc.slaOver,
		OverRate:     percent(acc.slaOver, n),
		Tiers:        tiers,
		FlatOutliers: acc.flatOutliers,
		FlatRate:     percent(acc.flatOutliers, n),
	}
}

func costByType(acc *accumulator) []dto.TypeCost {
	out := make([]dto.TypeCost, 0, len(acc.typeOrder))
	for _, t := range acc.typeOrder {
		tally := acc.types[t]
		out = append(out, dto.TypeCost{
			Type:    t,
			Label:   t.Label(),
			Cases:   tally.cases,
			Total:   tally.cost.Round(0),
			Average: tally.cost.Div(decimal.NewFromInt(int64(tally.cases))).Round(0),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Average.GreaterThan(out[j].Average) })
	return out
}

func reliability(acc *accumulator) []dto.ModelReliability {
	var out []dto.ModelReliability
	for _, model := range acc.mtbfModels {
		serials := acc.mtbfSerials[model]
		r := dto.ModelReliability{Model: model, UniqueSerials: len(serials)}

		gapSum, gapCount := 0, 0
		for _, serial := range serials {
			dates := append([]time.Time(nil), acc.mtbfDates[modelSerialKey{model, serial}]...)
			r.TotalCases += len(dates)
			sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
			for i := 1; i < len(dates); i++ {
				if gap := domain.CalendarDaysBetween(dates[i-1], dates[i]); gap > 0 {
					gapSum += gap
					gapCount++
				}
			}
		}
		if r.TotalCases < 2 {
			continue
		}
		if gapCount > 0 {
			mtbf := int(math.Round(float64(gapSum) / float64(gapCount)))
			r.MTBFDays = &mtbf
		}
		r.FailureRate = round1(ratio(float64(r.TotalCases), float64(r.UniqueSerials)))
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FailureRate > out[j].FailureRate })
	return lo.Subset(out, 0, reliabilityCount)
}

// monthSpan is the dated range of cases in 30-day months, at least 1
func monthSpan(cases []*entities.Case) float64 {
	dated := lo.Filter(cases, func(c *entities.Case, _ int) bool { return c.IsDated() })
	if len(dated) < 2 {
		return 1
	}
	first := lo.MinBy(dated, func(a, b *entities.Case) bool { return a.CompletionDate.Before(b.CompletionDate) })
	last := lo.MaxBy(dated, func(a, b *entities.Case) bool { return a.CompletionDate.After(b.CompletionDate) })
	days := domain.CalendarDaysBetween(first.CompletionDate, last.CompletionDate)
	return math.Max(1, float64(days)/daysPerForecastMonth)
}

func (a *StatsAggregator) partUsage(acc *accumulator) []dto.PartUsage {
	ranked := acc.parts.ranked()
	out := make([]dto.PartUsage, 0, len(ranked))
	for _, k := range ranked {
		unit := a.costs.Cost(k.number)
		count := acc.parts.count(k)
		out = append(out, dto.PartUsage{
			PartNumber: k.number,
			Name:       k.name,
			Count:      count,
			UnitCost:   unit,
			TotalCost:  unit.Mul(decimal.NewFromInt(int64(count))),
		})
	}
	return out
}

func costWeighted(usage []dto.PartUsage) []dto.PartUsage {
	out := append([]dto.PartUsage(nil), usage...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalCost.GreaterThan(out[j].TotalCost) })
	return lo.Subset(out, 0, costWeightedCount)
}

func (a *StatsAggregator) inventory(acc *accumulator, span float64) []dto.PartForecast {
	usage := a.partUsage(acc)
	out := make([]dto.PartForecast, 0, len(usage))
	for _, u := range usage {
		rate := round1(float64(u.Count) / span)
		out = append(out, dto.PartForecast{
			PartNumber:  u.PartNumber,
			Name:        u.Name,
			Count:       u.Count,
			UnitCost:    u.UnitCost,
			TotalCost:   u.TotalCost,
			MonthlyRate: rate,
			SafetyStock: int(math.Ceil(rate * safetyStockFactor)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MonthlyRate > out[j].MonthlyRate })
	return lo.Subset(out, 0, inventoryCount)
}

func rankEngineers(engineers []*dto.EngineerStats) []dto.EngineerStats {
	out := make([]dto.EngineerStats, len(engineers))
	for i, e := range engineers {
		out[i] = *e
		out[i].AvgTAT = average(float64(e.TATSum), e.Cases)
		out[i].RecallRate = percent(e.RecallNum, e.RecallBase)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	return out
}

func skillMatrix(acc *accumulator) dto.SkillMatrix {
	counts := make(map[string]map[string]int, len(acc.skill))
	for eng, row := range acc.skill {
		copied := make(map[string]int, len(row))
		for m, n := range row {
			copied[m] = n
		}
		counts[eng] = copied
	}
	return dto.SkillMatrix{
		Models:    lo.Subset(acc.skillTotal.ranked(), 0, skillMatrixModels),
		Engineers: append([]string(nil), acc.skillEng...),
		Counts:    counts,
	}
}
