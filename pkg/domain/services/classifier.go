package services

import (
	"fmt"
	"strings"

	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// classificationRule maps raw type text to a canonical type when any keyword matches
type classificationRule struct {
	keywords []string
	result   entities.ServiceType
}

func (r classificationRule) matches(raw string) bool {
	for _, k := range r.keywords {
		if strings.Contains(raw, k) {
			return true
		}
	}
	return false
}

// classificationRules is evaluated top to bottom, first match wins
var classificationRules = []classificationRule{
	{[]string{"困難"}, entities.DifficultRepair},
	{[]string{"睡眠中心"}, entities.SleepCenterInstallation},
	{[]string{"醫院設備安裝", "醫院裝機"}, entities.HospitalInstallation},
	{[]string{"設備裝機", "居家裝機"}, entities.HomeInstallation},
	{[]string{"醫院保養"}, entities.HospitalMaintenance},
	{[]string{"居家保養"}, entities.HomeMaintenance},
	{[]string{"一般", "內修"}, entities.GeneralRepair},
	{[]string{"整新"}, entities.BulkRefurbishment},
	{[]string{"外修"}, entities.ExternalRepair},
	{[]string{"檢測", "簡易"}, entities.SimpleInspection},
}

// defaultSLATargets are the per-type TAT ceilings in working days
var defaultSLATargets = map[entities.ServiceType]int{
	entities.GeneralRepair:           5,
	entities.DifficultRepair:         10,
	entities.SimpleInspection:        2,
	entities.ExternalRepair:          7,
	entities.HomeMaintenance:         3,
	entities.HospitalMaintenance:     3,
	entities.HomeInstallation:        5,
	entities.HospitalInstallation:    5,
	entities.BulkRefurbishment:       7,
	entities.SleepCenterInstallation: 5,
	entities.OtherService:            5,
}

// modelRankingExclusions mark raw types that never enter the top-model ranking
var modelRankingExclusions = []string{"保養", "整新", "裝機", "安裝", "其他"}

// TypeClassifier resolves free-text service types and their SLA targets
type TypeClassifier struct {
	slaTargets map[entities.ServiceType]int
}

// NewTypeClassifier creates a classifier with the default SLA targets
func NewTypeClassifier() *TypeClassifier {
	targets := make(map[entities.ServiceType]int, len(defaultSLATargets))
	for k, v := range defaultSLATargets {
		targets[k] = v
	}
	return &TypeClassifier{slaTargets: targets}
}

// WithSLAOverrides returns a classifier whose SLA targets are replaced by the
// keyed values. Keys are the weight-table keys (gen, hard, ...).
func (tc *TypeClassifier) WithSLAOverrides(overrides map[string]int) (*TypeClassifier, error) {
	out := NewTypeClassifier()
	for k, v := range tc.slaTargets {
		out.slaTargets[k] = v
	}
	for key, days := range overrides {
		t, err := entities.ParseServiceTypeKey(key)
		if err != nil {
			return nil, err
		}
		if days < 1 {
			return nil, fmt.Errorf("SLA target for %q must be at least 1 day, got %d", key, days)
		}
		out.slaTargets[t] = days
	}
	return out, nil
}

// Classify maps raw service-type text to its canonical type
func (tc *TypeClassifier) Classify(raw string) entities.ServiceType {
	for _, rule := range classificationRules {
		if rule.matches(raw) {
			return rule.result
		}
	}
	return entities.OtherService
}

// SLATargetDays returns the TAT ceiling for a canonical type
func (tc *TypeClassifier) SLATargetDays(t entities.ServiceType) int {
	if days, ok := tc.slaTargets[t]; ok {
		return days
	}
	return 5
}

// IsSLAOver reports whether tat exceeds the target for t
func (tc *TypeClassifier) IsSLAOver(t entities.ServiceType, tat int) bool {
	return tat > tc.SLATargetDays(t)
}

// PointWeight returns the productivity weight of t in the given table
func PointWeight(t entities.ServiceType, weights entities.WeightTable) float64 {
	return weights.Weight(t)
}

// ExcludedFromModelRanking reports whether a raw type is maintenance,
// refurbishment, installation or catch-all work.
func ExcludedFromModelRanking(raw string) bool {
	for _, k := range modelRankingExclusions {
		if strings.Contains(raw, k) {
			return true
		}
	}
	return false
}

// Brand is a device manufacturer family used in warranty breakdowns
type Brand string

const (
	BrandResMed  Brand = "ResMed"
	BrandPhilips Brand = "Philips"
	BrandOther   Brand = "Other"
)

var (
	resmedKeywords  = []string{"airsense", "lumis", "resmed", "s9", "s10", "astral", "stellar"}
	philipsKeywords = []string{"dreamstation", "trilogy", "bipap", "philips", "v60", "v30", "coughassist", "everflo"}
)

// ClassifyBrand assigns a model name to a brand family by keyword
func ClassifyBrand(model string) Brand {
	m := strings.ToLower(model)
	for _, k := range resmedKeywords {
		if strings.Contains(m, k) {
			return BrandResMed
		}
	}
	for _, k := range philipsKeywords {
		if strings.Contains(m, k) {
			return BrandPhilips
		}
	}
	return BrandOther
}
