package services

import (
	"strings"

	"github.com/samber/lo"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

const (
	maxTopCustomers    = 5
	maxCustomerParts   = 3
	customerFaultRunes = 15
	unknownClient      = "Unknown"
	undescribedFault   = "未詳述"
	defaultSuggestion  = "持續觀察。"
)

// routineTypeKeywords mark maintenance, refurbishment and installation
// tickets, which are not repair calls
var routineTypeKeywords = []string{"保養", "整新", "裝機", "安裝"}

var faultSuggestions = []struct {
	keywords   []string
	suggestion string
}{
	{[]string{"摔", "破"}, "建議安排操作衛教，減少人為損壞。"},
	{[]string{"異音", "吵"}, "可能是風扇或濾網問題，建議檢查環境落塵。"},
	{[]string{"無法開機"}, "建議檢查電源線或插座環境。"},
}

type customerTally struct {
	name   string
	cases  int
	models *orderedCounter[string]
	faults *orderedCounter[string]
	parts  *orderedCounter[string]
}

// TopCustomers ranks clients by repair calls, skipping routine ticket types
// and unnamed clients. Ties keep first-seen order.
func TopCustomers(cases []*entities.Case) []dto.CustomerProfile {
	var order []*customerTally
	byName := make(map[string]*customerTally)
	for _, c := range cases {
		if c.Client == "" || c.Client == unknownClient || isRoutineType(c.RawType) {
			continue
		}
		t, ok := byName[c.Client]
		if !ok {
			t = &customerTally{
				name:   c.Client,
				models: newOrderedCounter[string](),
				faults: newOrderedCounter[string](),
				parts:  newOrderedCounter[string](),
			}
			byName[c.Client] = t
			order = append(order, t)
		}
		t.cases++
		if c.Model != "" {
			t.models.add(c.Model, 1)
		}
		if c.FaultDescription != "" {
			t.faults.add(truncateRunes(c.FaultDescription, customerFaultRunes), 1)
		}
		for _, p := range c.CountableParts() {
			if name := strings.TrimSpace(strings.Split(p.Name, ",")[0]); name != "" {
				t.parts.add(name, 1)
			}
		}
	}

	ranked := lo.Subset(rankByCases(order), 0, maxTopCustomers)
	out := make([]dto.CustomerProfile, 0, len(ranked))
	for i, t := range ranked {
		profile := dto.CustomerProfile{
			Rank:     i + 1,
			Name:     t.name,
			Cases:    t.cases,
			TopFault: undescribedFault,
			TopParts: topCounts(t.parts, maxCustomerParts),
		}
		if models := topCounts(t.models, 1); len(models) > 0 {
			profile.TopModel = &models[0]
		}
		if faults := t.faults.ranked(); len(faults) > 0 {
			profile.TopFault = faults[0]
		}
		profile.Suggestion = suggestFor(profile.TopFault)
		out = append(out, profile)
	}
	return out
}

func isRoutineType(raw string) bool {
	return lo.SomeBy(routineTypeKeywords, func(k string) bool { return strings.Contains(raw, k) })
}

func suggestFor(fault string) string {
	for _, s := range faultSuggestions {
		if lo.SomeBy(s.keywords, func(k string) bool { return strings.Contains(fault, k) }) {
			return s.suggestion
		}
	}
	return defaultSuggestion
}

func rankByCases(tallies []*customerTally) []*customerTally {
	counter := newOrderedCounter[*customerTally]()
	for _, t := range tallies {
		counter.add(t, t.cases)
	}
	return counter.ranked()
}

func topCounts(c *orderedCounter[string], n int) []dto.NameCount {
	return lo.Map(lo.Subset(c.ranked(), 0, uint(n)), func(k string, _ int) dto.NameCount {
		return dto.NameCount{Name: k, Count: c.count(k)}
	})
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
