package csv

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	"github.com/vsinha/repairkpi/pkg/domain/services"
)

// LoadPartCosts reads a reference price table file into a lookup
func LoadPartCosts(filename string, enc Encoding) (*services.PartCostLookup, error) {
	records, err := ReadFile(filename, enc)
	if err != nil {
		return nil, err
	}
	return ParsePartCosts(records)
}

const priceHeaderSearchRows = 10

// ParsePartCosts builds a lookup from price table rows. The header is the
// first of the leading rows naming a part-number column; banner rows above
// it are ignored. Without one, row 0 is the header and the first and last
// columns hold part and cost. Rows without a positive cost are skipped.
func ParsePartCosts(records [][]string) (*services.PartCostLookup, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	headerIdx, partIdx := 0, -1
	for i := 0; i < len(records) && i < priceHeaderSearchRows; i++ {
		if idx := findColumn(upperCells(records[i]), anyOf("PART NUMBER", "PART NO")); idx >= 0 {
			headerIdx, partIdx = i, idx
			break
		}
	}
	header := upperCells(records[headerIdx])
	costIdx := findColumn(header, anyOf("進貨價", "COST"))
	if partIdx < 0 && len(header) >= 2 {
		partIdx = 0
		costIdx = len(header) - 1
		if idx := findColumn(header, exactly("進貨價")); idx >= 0 {
			costIdx = idx
		}
	}

	entries := make(map[entities.PartNumber]decimal.Decimal)
	if partIdx < 0 || costIdx < 0 {
		return services.NewPartCostLookup(entries), nil
	}

	for _, row := range records[headerIdx+1:] {
		if len(row) <= max(partIdx, costIdx) {
			continue
		}
		cols := upperCells(row)
		pn := entities.PartNumber(cols[partIdx])
		cost := ParseMoney(cols[costIdx])
		if pn == "" || !cost.IsPositive() {
			continue
		}
		entries[pn] = cost
	}
	return services.NewPartCostLookup(entries), nil
}

func upperCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.ToUpper(cleanHeader(c))
	}
	return out
}
