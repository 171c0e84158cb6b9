package dto

import (
	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// Stats is the KPI bundle computed over one filtered case set
type Stats struct {
	TotalCases       int     `json:"totalCases"`
	TotalPoints      float64 `json:"totalPoints"`
	TATSum           int     `json:"tatSum"`
	AvgTAT           float64 `json:"avgTat"`
	AvgPending       float64 `json:"avgPending"`
	AvgBacklog       float64 `json:"avgBacklog"`
	AvgConstruction  float64 `json:"avgConstruction"`
	RecallCount      int     `json:"recallCount"`
	RecallBase       int     `json:"recallBase"`
	RecallRate       float64 `json:"recallRate"`
	FirstTimeFixRate float64 `json:"firstTimeFixRate"`

	Financials    Financials      `json:"financials"`
	SLA           SLAStats        `json:"sla"`
	CostPerRepair decimal.Decimal `json:"costPerRepair"`
	CostByType    []TypeCost      `json:"costByType"`

	Reliability []ModelReliability `json:"reliability"`
	MonthSpan   float64            `json:"monthSpan"`
	Inventory   []PartForecast     `json:"inventory"`

	Gini        float64         `json:"gini"`
	Engineers   []EngineerStats `json:"engineers"`
	SkillMatrix SkillMatrix     `json:"skillMatrix"`

	TopModels         []NameCount  `json:"topModels"`
	TopParts          []PartUsage  `json:"topParts"`
	CostWeightedParts []PartUsage  `json:"costWeightedParts"`
	TopEngineer       *NamedPoints `json:"topEngineer,omitempty"`
}

// EngineerStats is the per-engineer rollup. Engineers are listed by points,
// highest first, ties in first-seen order.
type EngineerStats struct {
	Engineer   string  `json:"engineer"`
	Cases      int     `json:"cases"`
	Points     float64 `json:"points"`
	TATSum     int     `json:"tatSum"`
	AvgTAT     float64 `json:"avgTat"`
	RecallNum  int     `json:"recallNum"`
	RecallBase int     `json:"recallBase"`
	RecallRate float64 `json:"recallRate"`
}

// NamedPoints identifies the top engineer
type NamedPoints struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// Financials holds money totals and warranty breakdowns
type Financials struct {
	Revenue      decimal.Decimal `json:"revenue"`
	ExternalCost decimal.Decimal `json:"externalCost"`
	PartsCost    decimal.Decimal `json:"partsCost"`
	LaborCost    decimal.Decimal `json:"laborCost"`
	GrossMargin  decimal.Decimal `json:"grossMargin"`

	WarrantyCases          int                          `json:"warrantyCases"`
	WarrantyRate           float64                      `json:"warrantyRate"`
	WarrantyRepairs        int                          `json:"warrantyRepairs"`
	WarrantyRepairsByType  map[entities.ServiceType]int `json:"warrantyRepairsByType"`
	WarrantyRepairsByBrand map[string]int               `json:"warrantyRepairsByBrand"`
}

// SLAStats counts cases whose TAT is over their type's target
type SLAStats struct {
	Over     int       `json:"over"`
	OverRate float64   `json:"overRate"`
	Tiers    []SLATier `json:"tiers"`

	// FlatOutliers counts tat > 5 regardless of type
	FlatOutliers int     `json:"flatOutliers"`
	FlatRate     float64 `json:"flatRate"`
}

// SLATier is the overage for one canonical type
type SLATier struct {
	Type       entities.ServiceType `json:"type"`
	Label      string               `json:"label"`
	TargetDays int                  `json:"targetDays"`
	Cases      int                  `json:"cases"`
	Over       int                  `json:"over"`
	OverRate   float64              `json:"overRate"`
}

// TypeCost is external plus parts cost for one canonical type
type TypeCost struct {
	Type    entities.ServiceType `json:"type"`
	Label   string               `json:"label"`
	Cases   int                  `json:"cases"`
	Total   decimal.Decimal      `json:"total"`
	Average decimal.Decimal      `json:"average"`
}

// ModelReliability is the repeat-visit profile of one model
type ModelReliability struct {
	Model         string  `json:"model"`
	UniqueSerials int     `json:"uniqueSerials"`
	TotalCases    int     `json:"totalCases"`
	MTBFDays      *int    `json:"mtbfDays"`
	FailureRate   float64 `json:"failureRate"`
}

// PartForecast is consumption and suggested stock for one part
type PartForecast struct {
	PartNumber  entities.PartNumber `json:"partNumber"`
	Name        string              `json:"name"`
	Count       int                 `json:"count"`
	UnitCost    decimal.Decimal     `json:"unitCost"`
	TotalCost   decimal.Decimal     `json:"totalCost"`
	MonthlyRate float64             `json:"monthlyRate"`
	SafetyStock int                 `json:"safetyStock"`
}

// PartUsage is a consumed part with its count and cost
type PartUsage struct {
	PartNumber entities.PartNumber `json:"partNumber"`
	Name       string              `json:"name"`
	Count      int                 `json:"count"`
	UnitCost   decimal.Decimal     `json:"unitCost"`
	TotalCost  decimal.Decimal     `json:"totalCost"`
}

// NameCount is a ranked label
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SkillMatrix cross-tabulates engineers against models
type SkillMatrix struct {
	// Models are the top models by case count, the matrix's display columns
	Models    []string                  `json:"models"`
	Engineers []string                  `json:"engineers"`
	Counts    map[string]map[string]int `json:"counts"`
}

// Count returns how many cases engineer handled on model
func (m SkillMatrix) Count(engineer, model string) int {
	return m.Counts[engineer][model]
}
