package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// Report contains the complete output of a pipeline run
type Report struct {
	RunID       string                 `json:"runId"`
	Source      string                 `json:"source"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Range       entities.DateRange     `json:"range"`
	AllCases    int                    `json:"allCases"`
	Cases       []*entities.Case       `json:"-"`
	Warnings    []entities.DataWarning `json:"warnings"`

	Stats      *Stats              `json:"stats"`
	Comparison *PeriodComparison   `json:"comparison"`
	Trends     []MonthlyTrend      `json:"trends"`
	Anomalies  []Anomaly           `json:"anomalies"`
	Scorecard  []EngineerScore     `json:"scorecard"`
	Customers  []CustomerProfile   `json:"customers"`
	Readiness  *EquipmentReadiness `json:"readiness,omitempty"`
}

// PeriodAggregate is the headline numbers of one date window
type PeriodAggregate struct {
	Range       entities.DateRange `json:"range"`
	Cases       int                `json:"cases"`
	GrossMargin decimal.Decimal    `json:"grossMargin"`
	AvgTAT      float64            `json:"avgTat"`
	SLAOverRate float64            `json:"slaOverRate"`
}

// PeriodDelta compares the current window against a baseline. Cases,
// GrossMargin and AvgTAT are percentage changes; SLAOverRate is a
// difference in percentage points.
type PeriodDelta struct {
	Cases       float64 `json:"cases"`
	GrossMargin float64 `json:"grossMargin"`
	AvgTAT      float64 `json:"avgTat"`
	SLAOverRate float64 `json:"slaOverRate"`
}

// Comparison pairs a baseline window with its deltas
type Comparison struct {
	Baseline PeriodAggregate `json:"baseline"`
	Delta    PeriodDelta     `json:"delta"`
}

// PeriodComparison is the current window against three historical windows
type PeriodComparison struct {
	PeriodDays         int             `json:"periodDays"`
	Current            PeriodAggregate `json:"current"`
	MonthOverMonth     Comparison      `json:"monthOverMonth"`
	QuarterOverQuarter Comparison      `json:"quarterOverQuarter"`
	YearOverYear       Comparison      `json:"yearOverYear"`
}

// MonthlyTrend is one calendar month of the unfiltered case list
type MonthlyTrend struct {
	Month       string          `json:"month"`
	Cases       int             `json:"cases"`
	AvgTAT      float64         `json:"avgTat"`
	RecallRate  float64         `json:"recallRate"`
	GrossMargin decimal.Decimal `json:"grossMargin"`
}

// AnomalyKind names a trend alert
type AnomalyKind string

const (
	AnomalyCaseSurge   AnomalyKind = "surge"
	AnomalyRecallSpike AnomalyKind = "recall"
)

// Anomaly is a trend alert on the latest month
type Anomaly struct {
	Kind    AnomalyKind `json:"kind"`
	Month   string      `json:"month"`
	Value   float64     `json:"value"`
	Message string      `json:"message"`
}

// EngineerScore is one row of the engineer scorecard
type EngineerScore struct {
	Engineer         string  `json:"engineer"`
	Cases            int     `json:"cases"`
	Points           float64 `json:"points"`
	AvgTAT           float64 `json:"avgTat"`
	Achievement      float64 `json:"achievement"`
	RecallRate       float64 `json:"recallRate"`
	TATScore         float64 `json:"tatScore"`
	RecallScore      float64 `json:"recallScore"`
	CoopScore        float64 `json:"coopScore"`
	FinalScore       float64 `json:"finalScore"`
	TATClass         string  `json:"tatClass"`
	AchievementClass string  `json:"achievementClass"`
}

// CustomerProfile summarizes the repair calls of one client
type CustomerProfile struct {
	Rank       int         `json:"rank"`
	Name       string      `json:"name"`
	Cases      int         `json:"cases"`
	TopModel   *NameCount  `json:"topModel,omitempty"`
	TopFault   string      `json:"topFault"`
	TopParts   []NameCount `json:"topParts"`
	Suggestion string      `json:"suggestion"`
}

// Advisory is a leveled note attached to a device history group
type Advisory struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// DeviceGroup is the visit history of one device
type DeviceGroup struct {
	Key        string           `json:"key"`
	Model      string           `json:"model"`
	Cases      []*entities.Case `json:"-"`
	CaseIDs    []string         `json:"caseIds"`
	Advisories []Advisory       `json:"advisories"`
}

// DeviceHistory is the result of a device search
type DeviceHistory struct {
	Query      string        `json:"query"`
	TotalCases int           `json:"totalCases"`
	Groups     []DeviceGroup `json:"groups"`
}

// EquipmentCategory counts assets of one equipment family by status
type EquipmentCategory struct {
	Name      string                 `json:"name"`
	Total     int                    `json:"total"`
	OK        int                    `json:"ok"`
	Repair    int                    `json:"repair"`
	Testing   int                    `json:"testing"`
	Abnormal  int                    `json:"abnormal"`
	Attention []entities.AssetRecord `json:"attention,omitempty"`
}

// EquipmentReadiness summarises the asset inventory
type EquipmentReadiness struct {
	Categories    []EquipmentCategory `json:"categories"`
	Total         int                 `json:"total"`
	OK            int                 `json:"ok"`
	ReadinessRate float64             `json:"readinessRate"`
}
