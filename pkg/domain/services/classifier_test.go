package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

func TestTypeClassifier_Classify(t *testing.T) {
	tc := NewTypeClassifier()

	tests := []struct {
		raw      string
		expected entities.ServiceType
	}{
		{"一般維修", entities.GeneralRepair},
		{"內修", entities.GeneralRepair},
		{"困難維修", entities.DifficultRepair},
		{"一般困難", entities.DifficultRepair},
		{"外修判定", entities.ExternalRepair},
		{"居家保養", entities.HomeMaintenance},
		{"醫院保養", entities.HospitalMaintenance},
		{"簡易檢測", entities.SimpleInspection},
		{"檢測", entities.SimpleInspection},
		{"居家裝機", entities.HomeInstallation},
		{"設備裝機", entities.HomeInstallation},
		{"醫院設備安裝", entities.HospitalInstallation},
		{"醫院裝機", entities.HospitalInstallation},
		{"睡眠中心", entities.SleepCenterInstallation},
		{"睡眠中心一般", entities.SleepCenterInstallation},
		{"批量整新", entities.BulkRefurbishment},
		{"整新外修", entities.BulkRefurbishment},
		{"", entities.OtherService},
		{"其他", entities.OtherService},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := tc.Classify(tt.raw); got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestTypeClassifier_SLATargets(t *testing.T) {
	tc := NewTypeClassifier()

	if got := tc.SLATargetDays(entities.DifficultRepair); got != 10 {
		t.Errorf("Expected difficult repair SLA 10, got %d", got)
	}
	if tc.IsSLAOver(entities.DifficultRepair, 10) {
		t.Error("Expected tat 10 to be within the difficult repair SLA")
	}
	if !tc.IsSLAOver(entities.DifficultRepair, 11) {
		t.Error("Expected tat 11 to exceed the difficult repair SLA")
	}
	if got := tc.SLATargetDays(entities.SimpleInspection); got != 2 {
		t.Errorf("Expected inspection SLA 2, got %d", got)
	}

	custom, err := tc.WithSLAOverrides(map[string]int{"gen": 3})
	if err != nil {
		t.Fatalf("Unexpected override error: %v", err)
	}
	if custom.SLATargetDays(entities.GeneralRepair) != 3 {
		t.Errorf("Expected override SLA 3, got %d", custom.SLATargetDays(entities.GeneralRepair))
	}
	if tc.SLATargetDays(entities.GeneralRepair) != 5 {
		t.Error("Expected overrides to leave the source classifier untouched")
	}

	if _, err := tc.WithSLAOverrides(map[string]int{"bogus": 3}); err == nil {
		t.Error("Expected error for unknown SLA key")
	}
	if _, err := tc.WithSLAOverrides(map[string]int{"gen": 0}); err == nil {
		t.Error("Expected error for zero-day SLA")
	}
}

func TestClassifyBrand(t *testing.T) {
	tests := []struct {
		model    string
		expected Brand
	}{
		{"AirSense 10", BrandResMed},
		{"Lumis 150", BrandResMed},
		{"DreamStation Auto", BrandPhilips},
		{"Trilogy 100", BrandPhilips},
		{"EverFlo", BrandPhilips},
		{"VH-1500", BrandOther},
		{"", BrandOther},
	}

	for _, tt := range tests {
		if got := ClassifyBrand(tt.model); got != tt.expected {
			t.Errorf("ClassifyBrand(%q) = %s, want %s", tt.model, got, tt.expected)
		}
	}
}

func TestExcludedFromModelRanking(t *testing.T) {
	excluded := []string{"居家保養", "批量整新", "居家裝機", "醫院安裝", "其他預設"}
	for _, raw := range excluded {
		if !ExcludedFromModelRanking(raw) {
			t.Errorf("Expected %q to be excluded", raw)
		}
	}
	included := []string{"一般維修", "困難維修", "外修判定", "簡易檢測"}
	for _, raw := range included {
		if ExcludedFromModelRanking(raw) {
			t.Errorf("Expected %q to be ranked", raw)
		}
	}
}

func TestPartCostLookup(t *testing.T) {
	lookup := NewPartCostLookup(map[entities.PartNumber]decimal.Decimal{
		" p100 ": decimal.NewFromInt(250),
		"P200":   decimal.Zero,
		"P300":   decimal.NewFromInt(-5),
		"":       decimal.NewFromInt(9),
	})

	if lookup.Len() != 1 {
		t.Fatalf("Expected 1 priced part, got %d", lookup.Len())
	}

	tests := []struct {
		pn       entities.PartNumber
		expected int64
	}{
		{"P100", 250},
		{"p100", 250},
		{"P200", 0},
		{"P300", 0},
		{"", 0},
		{"UNKNOWN", 0},
	}
	for _, tt := range tests {
		if got := lookup.Cost(tt.pn); !got.Equal(decimal.NewFromInt(tt.expected)) {
			t.Errorf("Cost(%q) = %s, want %d", tt.pn, got, tt.expected)
		}
	}

	var nilLookup *PartCostLookup
	if !nilLookup.Cost("P100").IsZero() {
		t.Error("Expected nil lookup to price everything at zero")
	}

	c := &entities.Case{Parts: []entities.Part{
		{PartNumber: "P100", Name: "Filter"},
		{PartNumber: "P100", Name: "TRUE"},
		{PartNumber: "X", Name: "Unknown"},
	}}
	if got := lookup.PartsCost(c); !got.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected parts cost 250 with sentinel skipped, got %s", got)
	}
}
