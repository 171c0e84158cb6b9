package csv

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	"github.com/vsinha/repairkpi/pkg/domain/services"
)

const maxEngineerNameLength = 20

var nonNumeric = regexp.MustCompile(`[^0-9.\-]+`)

// ParseStats counts what the parser dropped, merged or repaired
type ParseStats struct {
	DataRows         int
	SkippedRows      int
	MergedRows       int
	DuplicateIDs     int
	PendingClamped   int
	UnparseableDates int
}

// ParseResult holds reconciled cases in first-seen order
type ParseResult struct {
	Cases []*entities.Case
	Stats ParseStats
}

// CaseLoader turns repair-record tables into reconciled cases
type CaseLoader struct {
	classifier *services.TypeClassifier
	weights    entities.WeightTable
}

// NewCaseLoader creates a loader. A nil classifier uses the default SLA
// targets and a nil weight table uses the default weights.
func NewCaseLoader(classifier *services.TypeClassifier, weights entities.WeightTable) *CaseLoader {
	if classifier == nil {
		classifier = services.NewTypeClassifier()
	}
	if weights == nil {
		weights = entities.DefaultWeightTable()
	}
	return &CaseLoader{classifier: classifier, weights: weights}
}

// LoadFile reads, decodes and parses a repair-record CSV file
func (l *CaseLoader) LoadFile(filename string, enc Encoding) (*ParseResult, error) {
	records, err := ReadFile(filename, enc)
	if err != nil {
		return nil, err
	}
	result, err := l.ParseRecords(records)
	if err != nil {
		return nil, fmt.Errorf("repair records %s: %w", filename, err)
	}
	return result, nil
}

// rowValues is one data row after carry-forward and date derivation
type rowValues struct {
	id           string
	engineer     string
	client       string
	serial       string
	rawType      string
	model        string
	status       string
	requirement  string
	fault        string
	completion   time.Time
	rawTAT       int
	tat          int
	pending      int
	backlog      int
	construction float64
	revenue      decimal.Decimal
	externalCost decimal.Decimal
	warranty     bool
	parts        []entities.Part
}

// carryState tracks values inherited by continuation rows
type carryState struct {
	id         string
	engineer   string
	date       time.Time
	dateCaseID string
}

// ParseRecords reconciles rows (header first) into one case per work order.
// It fails with a *ColumnError when the engineer or completion-date column is missing.
func (l *CaseLoader) ParseRecords(records [][]string) (*ParseResult, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	cols, err := resolveCaseColumns(records[0])
	if err != nil {
		return nil, err
	}

	result := &ParseResult{}
	byID := make(map[string]*entities.Case)
	explicitSeen := make(map[string]int)
	var carry carryState

	for _, row := range records[1:] {
		result.Stats.DataRows++
		if populatedCells(row) < 2 {
			result.Stats.SkippedRows++
			continue
		}

		values, ok := l.parseRow(row, cols, &carry, &result.Stats)
		if !ok {
			result.Stats.SkippedRows++
			continue
		}
		if explicit := cell(row, cols.id); explicit != "" {
			explicitSeen[explicit]++
			if explicitSeen[explicit] == 2 {
				result.Stats.DuplicateIDs++
			}
		}

		existing, found := byID[values.id]
		if !found {
			c := l.newCase(values)
			byID[values.id] = c
			result.Cases = append(result.Cases, c)
			continue
		}
		mergeInto(existing, values)
		result.Stats.MergedRows++
	}

	return result, nil
}

// validEngineer rejects blanks, over-long names and assembly-line placeholders
func validEngineer(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= maxEngineerNameLength &&
		!strings.Contains(name, "Assembly")
}

func (l *CaseLoader) parseRow(row []string, cols caseColumns, carry *carryState, stats *ParseStats) (rowValues, bool) {
	var v rowValues

	v.id = cell(row, cols.id)
	switch {
	case v.id != "":
		carry.id = v.id
	case carry.id != "":
		v.id = carry.id
	default:
		return v, false
	}

	v.engineer = cell(row, cols.engineer)
	if v.engineer == "" {
		v.engineer = carry.engineer
	} else if validEngineer(v.engineer) {
		carry.engineer = v.engineer
	}
	if !validEngineer(v.engineer) {
		return v, false
	}

	received := l.parseDateCell(row, cols.received, stats)
	firstTriage := l.parseDateCell(row, cols.firstTriage, stats)
	quote := l.parseDateCell(row, cols.quote, stats)
	repairStart := l.parseDateCell(row, cols.repairStart, stats)
	v.completion = l.parseDateCell(row, cols.completion, stats)

	if v.completion.IsZero() {
		if !carry.date.IsZero() && carry.dateCaseID == v.id {
			v.completion = carry.date
		}
	} else {
		carry.date = v.completion
		carry.dateCaseID = v.id
	}
	if received.IsZero() && !v.completion.IsZero() {
		received = v.completion
	}

	if !quote.IsZero() && !repairStart.IsZero() {
		if repairStart.Before(quote) {
			stats.PendingClamped++
		} else {
			v.pending = max(services.WorkingDays(quote, repairStart)-1, 0)
		}
	}

	if !received.IsZero() && !v.completion.IsZero() {
		v.rawTAT = services.WorkingDays(received, v.completion)
	} else {
		v.rawTAT = parseDayCount(cell(row, cols.tat))
	}
	v.tat = max(1, v.rawTAT-v.pending)

	if !firstTriage.IsZero() && !repairStart.IsZero() && !repairStart.Before(firstTriage) {
		v.backlog = max(0, services.WorkingDays(firstTriage, repairStart)-1-v.pending)
	}

	v.construction = parseFloat(cell(row, cols.construction))
	v.client = "Unknown"
	if cols.client >= 0 {
		v.client = cell(row, cols.client)
	}
	v.serial = cell(row, cols.serial)
	v.rawType = cell(row, cols.serviceType)
	v.model = cell(row, cols.model)
	v.status = cell(row, cols.status)
	v.requirement = cell(row, cols.requirement)
	v.fault = cell(row, cols.fault)
	v.revenue = ParseMoney(cell(row, cols.revenue))
	v.externalCost = ParseMoney(cell(row, cols.externalCost))
	v.warranty = strings.Contains(v.requirement, "保固") || strings.Contains(v.requirement, "維護合約")

	for _, slot := range cols.parts {
		name := cell(row, slot.name)
		if name == "" {
			continue
		}
		v.parts = appendPart(v.parts, entities.Part{
			Name:       name,
			PartNumber: entities.PartNumber(cell(row, slot.number)),
		})
	}

	return v, true
}

func (l *CaseLoader) parseDateCell(row []string, idx int, stats *ParseStats) time.Time {
	raw := cell(row, idx)
	if raw == "" {
		return time.Time{}
	}
	d, ok := services.ParseDate(raw)
	if !ok {
		stats.UnparseableDates++
		return time.Time{}
	}
	return d
}

func (l *CaseLoader) newCase(v rowValues) *entities.Case {
	serviceType := l.classifier.Classify(v.rawType)
	return &entities.Case{
		ID:                 v.id,
		Engineer:           v.engineer,
		Client:             v.client,
		SerialNumber:       v.serial,
		RawType:            v.rawType,
		ServiceType:        serviceType,
		Model:              v.model,
		Status:             v.status,
		Requirement:        v.requirement,
		FaultDescription:   v.fault,
		CompletionDate:     v.completion,
		RawTAT:             v.rawTAT,
		TAT:                v.tat,
		PendingDays:        v.pending,
		BacklogDays:        v.backlog,
		ConstructionDays:   v.construction,
		Revenue:            v.revenue,
		ExternalRepairCost: v.externalCost,
		IsUnderWarranty:    v.warranty,
		Parts:              v.parts,
		Points:             services.PointWeight(serviceType, l.weights),
	}
}

// mergeInto folds a continuation or duplicate row into an existing case
func mergeInto(c *entities.Case, v rowValues) {
	if v.tat > c.TAT {
		c.TAT = v.tat
		c.RawTAT = v.rawTAT
		c.PendingDays = v.pending
		c.BacklogDays = v.backlog
		c.ConstructionDays = v.construction
	}
	if c.Engineer == "" {
		c.Engineer = v.engineer
	}
	if c.SerialNumber == "" {
		c.SerialNumber = v.serial
	}
	if c.Model == "" {
		c.Model = v.model
	}
	if c.CompletionDate.IsZero() {
		c.CompletionDate = v.completion
	}
	if v.revenue.GreaterThan(c.Revenue) {
		c.Revenue = v.revenue
	}
	if v.externalCost.GreaterThan(c.ExternalRepairCost) {
		c.ExternalRepairCost = v.externalCost
	}
	c.IsUnderWarranty = c.IsUnderWarranty || v.warranty
	for _, p := range v.parts {
		c.AddPart(p)
	}
}

func appendPart(parts []entities.Part, p entities.Part) []entities.Part {
	for _, existing := range parts {
		if existing == p {
			return parts
		}
	}
	return append(parts, p)
}

// ParseMoney strips everything but digits, dot and minus and parses the
// rest. Unparseable input is zero.
func ParseMoney(s string) decimal.Decimal {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseDayCount reads a fallback TAT cell, rounded and never negative
func parseDayCount(s string) int {
	f := parseFloat(s)
	if f <= 0 {
		return 0
	}
	return int(math.Round(f))
}
