package services

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	testhelpers "github.com/vsinha/repairkpi/pkg/infrastructure/testing"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestStatsAggregator_EmptyAndNilWeights(t *testing.T) {
	agg := NewStatsAggregator(nil, nil, 0)

	stats, err := agg.Compute(nil, entities.DefaultWeightTable())
	if err != nil || stats != nil {
		t.Errorf("Expected (nil, nil) for empty input, got (%v, %v)", stats, err)
	}

	cases := []*entities.Case{testhelpers.NewCase("W1").Build()}
	if _, err := agg.Compute(cases, nil); !errors.Is(err, ErrNilWeightTable) {
		t.Errorf("Expected ErrNilWeightTable, got %v", err)
	}
}

func TestStatsAggregator_ExternalRepairPartsNotDoubleCounted(t *testing.T) {
	costs := testhelpers.PriceTable(map[string]int64{"P1": 300})
	cases := []*entities.Case{
		testhelpers.NewCase("E1").Type(entities.ExternalRepair).
			Revenue(1000).ExternalCost(500).Part("P1", "Pump").Build(),
		testhelpers.NewCase("G1").Revenue(800).Part("p1", "Pump").Build(),
	}

	stats, err := NewStatsAggregator(nil, costs, 0).Compute(cases, entities.DefaultWeightTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	fin := stats.Financials
	if !fin.PartsCost.Equal(dec(300)) {
		t.Errorf("Expected parts cost 300, got %s", fin.PartsCost)
	}
	if !fin.ExternalCost.Equal(dec(500)) {
		t.Errorf("Expected external cost 500, got %s", fin.ExternalCost)
	}
	if !fin.GrossMargin.Equal(dec(1000)) {
		t.Errorf("Expected gross margin 1000, got %s", fin.GrossMargin)
	}
	if !fin.LaborCost.Equal(dec(3 * DefaultLaborRatePerPoint)) {
		t.Errorf("Expected labor cost %d, got %s", 3*DefaultLaborRatePerPoint, fin.LaborCost)
	}
	if !stats.CostPerRepair.Equal(dec(400)) {
		t.Errorf("Expected cost per repair 400, got %s", stats.CostPerRepair)
	}

	if len(stats.CostByType) != 2 {
		t.Fatalf("Expected 2 cost-by-type rows, got %d", len(stats.CostByType))
	}
	if stats.CostByType[0].Type != entities.ExternalRepair || !stats.CostByType[0].Average.Equal(dec(500)) {
		t.Errorf("Expected external repair first at 500, got %+v", stats.CostByType[0])
	}
	if !stats.CostByType[1].Average.Equal(dec(300)) {
		t.Errorf("Expected general repair at 300, got %+v", stats.CostByType[1])
	}

	if len(stats.TopParts) != 1 || stats.TopParts[0].Count != 2 || !stats.TopParts[0].TotalCost.Equal(dec(600)) {
		t.Errorf("Expected Pump used twice costing 600, got %+v", stats.TopParts)
	}
}

func TestStatsAggregator_SLATiers(t *testing.T) {
	cases := []*entities.Case{
		testhelpers.NewCase("D1").Type(entities.DifficultRepair).TAT(11).Build(),
		testhelpers.NewCase("D2").Type(entities.DifficultRepair).TAT(10).Build(),
		testhelpers.NewCase("G1").Type(entities.GeneralRepair).TAT(6).Build(),
		testhelpers.NewCase("C1").Type(entities.SimpleInspection).TAT(2).Build(),
	}

	stats, err := NewStatsAggregator(nil, nil, 0).Compute(cases, entities.DefaultWeightTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.SLA.Over != 2 || stats.SLA.OverRate != 50 {
		t.Errorf("Expected 2 over (50%%), got %d (%v)", stats.SLA.Over, stats.SLA.OverRate)
	}
	if stats.SLA.FlatOutliers != 3 {
		t.Errorf("Expected 3 flat outliers, got %d", stats.SLA.FlatOutliers)
	}

	tiers := make(map[entities.ServiceType]int)
	for _, tier := range stats.SLA.Tiers {
		tiers[tier.Type] = tier.Over
	}
	expected := map[entities.ServiceType]int{
		entities.DifficultRepair:  1,
		entities.GeneralRepair:    1,
		entities.SimpleInspection: 0,
	}
	if !reflect.DeepEqual(tiers, expected) {
		t.Errorf("Expected tier overages %v, got %v", expected, tiers)
	}
	if stats.SLA.Tiers[0].Type != entities.GeneralRepair || stats.SLA.Tiers[0].TargetDays != 5 {
		t.Errorf("Expected general repair (100%% over) ranked first, got %+v", stats.SLA.Tiers[0])
	}
}

func TestStatsAggregator_RecallAndEngineers(t *testing.T) {
	cases := []*entities.Case{
		testhelpers.NewCase("A1").Engineer("Alice").TAT(2).Build(),
		testhelpers.NewCase("A2").Engineer("Alice").TAT(4).Recall("A1").Build(),
		testhelpers.NewCase("B1").Engineer("Bob").Type(entities.DifficultRepair).TAT(3).Build(),
		testhelpers.NewCase("C1").Engineer("Carol").Type(entities.HomeMaintenance).Build(),
		testhelpers.NewCase("C2").Engineer("Carol").Type(entities.HomeMaintenance).Build(),
	}
	before := entities.CloneCases(cases)

	stats, err := NewStatsAggregator(nil, nil, 0).Compute(cases, entities.DefaultWeightTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(before, cases) {
		t.Error("Expected input cases to be left untouched")
	}

	if stats.RecallBase != 3 || stats.RecallCount != 1 {
		t.Errorf("Expected recall 1/3, got %d/%d", stats.RecallCount, stats.RecallBase)
	}
	if stats.RecallRate != 33.3 || stats.FirstTimeFixRate != 66.7 {
		t.Errorf("Expected recall 33.3%% and FTFR 66.7%%, got %v and %v", stats.RecallRate, stats.FirstTimeFixRate)
	}

	// Alice 4 points, Bob 4 points, Carol 4 points: ties keep first-seen order
	names := []string{}
	for _, e := range stats.Engineers {
		names = append(names, e.Engineer)
	}
	if !reflect.DeepEqual(names, []string{"Alice", "Bob", "Carol"}) {
		t.Errorf("Expected stable engineer ranking, got %v", names)
	}
	alice := stats.Engineers[0]
	if alice.Cases != 2 || alice.AvgTAT != 3 || alice.RecallRate != 50 {
		t.Errorf("Unexpected Alice rollup: %+v", alice)
	}
	if stats.TopEngineer == nil || stats.TopEngineer.Name != "Alice" {
		t.Errorf("Expected Alice as top engineer, got %+v", stats.TopEngineer)
	}
	if stats.Gini != 0.133 {
		t.Errorf("Expected Gini 0.133 for counts 2/1/2, got %v", stats.Gini)
	}
}

func TestStatsAggregator_NoRecallBaseReportsFullFirstTimeFix(t *testing.T) {
	cases := []*entities.Case{testhelpers.NewCase("M1").Type(entities.HospitalMaintenance).Build()}

	stats, err := NewStatsAggregator(nil, nil, 0).Compute(cases, entities.DefaultWeightTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stats.FirstTimeFixRate != 100 || stats.RecallRate != 0 {
		t.Errorf("Expected FTFR 100 and recall 0, got %v and %v", stats.FirstTimeFixRate, stats.RecallRate)
	}
	if stats.Gini != 0 {
		t.Errorf("Expected Gini 0 for one engineer, got %v", stats.Gini)
	}
}

func TestStatsAggregator_ReweighsPoints(t *testing.T) {
	weights, err := entities.DefaultWeightTable().WithOverrides(map[string]float64{"gen": 3})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	cases := []*entities.Case{testhelpers.NewCase("W1").Build()}

	stats, err := NewStatsAggregator(nil, nil, 1000).Compute(cases, weights)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stats.TotalPoints != 3 {
		t.Errorf("Expected 3 points, got %v", stats.TotalPoints)
	}
	if !stats.Financials.LaborCost.Equal(dec(3000)) {
		t.Errorf("Expected labor cost 3000, got %s", stats.Financials.LaborCost)
	}
	if cases[0].Points != 2 {
		t.Errorf("Expected case points untouched, got %v", cases[0].Points)
	}
}

func TestStatsAggregator_ReliabilityAndInventory(t *testing.T) {
	d := testhelpers.Date
	cases := []*entities.Case{
		testhelpers.NewCase("R1").Model("AirSense 10").Serial("sn001").Completed(d(2024, 1, 1)).Part("F1", "Filter").Build(),
		testhelpers.NewCase("R2").Model("AirSense 10").Serial("SN001").Completed(d(2024, 1, 11)).Part("F1", "Filter").Build(),
		testhelpers.NewCase("R3").Model("AirSense 10").Serial("SN001").Completed(d(2024, 1, 31)).Part("F1", "Filter").Build(),
		testhelpers.NewCase("R4").Model("AirSense 10").Serial("SN002").Completed(d(2024, 1, 5)).Part("F1", "Filter").Build(),
		testhelpers.NewCase("R5").Model("DreamStation").Serial("DS01").Completed(d(2024, 2, 1)).Part("F1", "Filter").Build(),
		testhelpers.NewCase("R6").Model("DreamStation").Serial("DS01").Completed(d(2024, 2, 1)).Part("F1", "Filter").Part("T1", "Tube").Build(),
		testhelpers.NewCase("R7").Model("Lumis").Serial("LU01").Completed(d(2024, 3, 31)).Part("", "TRUE").Build(),
		testhelpers.NewCase("R8").Model("Lumis").Serial("N/A").Completed(d(2024, 3, 1)).Build(),
	}

	stats, err := NewStatsAggregator(nil, nil, 0).Compute(cases, entities.DefaultWeightTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(stats.Reliability) != 2 {
		t.Fatalf("Expected 2 models with repeat visits, got %+v", stats.Reliability)
	}
	air := stats.Reliability[0]
	if air.Model != "AirSense 10" || air.UniqueSerials != 2 || air.TotalCases != 4 || air.FailureRate != 2 {
		t.Errorf("Unexpected AirSense reliability: %+v", air)
	}
	if air.MTBFDays == nil || *air.MTBFDays != 15 {
		t.Errorf("Expected MTBF 15 days, got %v", air.MTBFDays)
	}
	ds := stats.Reliability[1]
	if ds.Model != "DreamStation" || ds.MTBFDays != nil {
		t.Errorf("Expected DreamStation without MTBF (same-day visits), got %+v", ds)
	}

	if stats.MonthSpan != 3 {
		t.Errorf("Expected a 3 month span, got %v", stats.MonthSpan)
	}
	if len(stats.Inventory) != 2 {
		t.Fatalf("Expected 2 forecast parts (sentinel dropped), got %+v", stats.Inventory)
	}
	filter, tube := stats.Inventory[0], stats.Inventory[1]
	if filter.Name != "Filter" || filter.Count != 6 || filter.MonthlyRate != 2 || filter.SafetyStock != 3 {
		t.Errorf("Unexpected filter forecast: %+v", filter)
	}
	if tube.Name != "Tube" || tube.MonthlyRate != 0.3 || tube.SafetyStock != 1 {
		t.Errorf("Unexpected tube forecast: %+v", tube)
	}
}

func TestStatsAggregator_ModelsWarrantyAndSkillMatrix(t *testing.T) {
	cases := []*entities.Case{
		testhelpers.NewCase("W1").Engineer("Alice").Model("AirSense 10").Warranty().Build(),
		testhelpers.NewCase("W2").Engineer("Bob").Model("DreamStation").Warranty().Type(entities.DifficultRepair).Build(),
		testhelpers.NewCase("W3").Engineer("Bob").Model("DreamStation").Build(),
		testhelpers.NewCase("W4").Engineer("Alice").Model("Oxygen X").Warranty().Type(entities.HomeMaintenance).Build(),
		testhelpers.NewCase("W5").Engineer("Alice").Model("-").Build(),
	}

	stats, err := NewStatsAggregator(nil, nil, 0).Compute(cases, entities.DefaultWeightTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	fin := stats.Financials
	if fin.WarrantyCases != 3 || fin.WarrantyRepairs != 2 || fin.WarrantyRate != 60 {
		t.Errorf("Unexpected warranty counts: %+v", fin)
	}
	if fin.WarrantyRepairsByBrand["ResMed"] != 1 || fin.WarrantyRepairsByBrand["Philips"] != 1 || fin.WarrantyRepairsByBrand["Other"] != 0 {
		t.Errorf("Unexpected brand breakdown: %v", fin.WarrantyRepairsByBrand)
	}
	if fin.WarrantyRepairsByType[entities.DifficultRepair] != 1 || fin.WarrantyRepairsByType[entities.ExternalRepair] != 0 {
		t.Errorf("Unexpected type breakdown: %v", fin.WarrantyRepairsByType)
	}

	// maintenance work is left out of the model ranking
	expectedModels := []dto.NameCount{{Name: "DreamStation", Count: 2}, {Name: "AirSense 10", Count: 1}}
	if !reflect.DeepEqual(stats.TopModels, expectedModels) {
		t.Errorf("Expected top models %v, got %v", expectedModels, stats.TopModels)
	}

	if stats.SkillMatrix.Count("Bob", "DreamStation") != 2 || stats.SkillMatrix.Count("Alice", "Oxygen X") != 1 {
		t.Errorf("Unexpected skill matrix: %+v", stats.SkillMatrix)
	}
	if !reflect.DeepEqual(stats.SkillMatrix.Models, []string{"DreamStation", "AirSense 10", "Oxygen X"}) {
		t.Errorf("Unexpected skill matrix columns: %v", stats.SkillMatrix.Models)
	}
}

func TestGiniCoefficient(t *testing.T) {
	testCases := []struct {
		name     string
		values   []int
		expected float64
	}{
		{"empty", nil, 0},
		{"single", []int{5}, 0},
		{"all_zero", []int{0, 0, 0}, 0},
		{"all_equal", []int{4, 4, 4, 4}, 0},
		{"mild", []int{4, 2, 2, 2}, 0.15},
		{"half", []int{5, 5, 0, 0}, 0.5},
		{"concentrated", []int{10, 0, 0, 0}, 0.75},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GiniCoefficient(tc.values); got != tc.expected {
				t.Errorf("GiniCoefficient(%v) = %v, want %v", tc.values, got, tc.expected)
			}
		})
	}

	prev := -1.0
	for n := 2; n <= 10; n++ {
		values := make([]int, n)
		values[0] = 100
		got := GiniCoefficient(values)
		if got <= prev {
			t.Errorf("Expected Gini to grow with N for full concentration, got %v after %v", got, prev)
		}
		prev = got
	}
}
