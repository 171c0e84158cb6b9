package services

import (
	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// PartCostLookup is an immutable part-number to unit-cost table
type PartCostLookup struct {
	costs map[entities.PartNumber]decimal.Decimal
}

// NewPartCostLookup builds a lookup from raw entries. Keys are normalized and
// entries with a non-positive cost are dropped; a later duplicate wins.
func NewPartCostLookup(entries map[entities.PartNumber]decimal.Decimal) *PartCostLookup {
	costs := make(map[entities.PartNumber]decimal.Decimal, len(entries))
	for pn, cost := range entries {
		key := pn.Normalized()
		if key == "" || !cost.IsPositive() {
			continue
		}
		costs[key] = cost
	}
	return &PartCostLookup{costs: costs}
}

// EmptyPartCostLookup returns a lookup that prices every part at zero
func EmptyPartCostLookup() *PartCostLookup {
	return &PartCostLookup{costs: map[entities.PartNumber]decimal.Decimal{}}
}

// Cost returns the unit cost of a part number, zero when unknown or blank.
// A nil lookup behaves like an empty one.
func (l *PartCostLookup) Cost(pn entities.PartNumber) decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	key := pn.Normalized()
	if key == "" {
		return decimal.Zero
	}
	if cost, ok := l.costs[key]; ok {
		return cost
	}
	return decimal.Zero
}

// Len returns the number of priced parts
func (l *PartCostLookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.costs)
}

// PartsCost sums the unit costs of the countable parts on c
func (l *PartCostLookup) PartsCost(c *entities.Case) decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.CountableParts() {
		total = total.Add(l.Cost(p.PartNumber))
	}
	return total
}
