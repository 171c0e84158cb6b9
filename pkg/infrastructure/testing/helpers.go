// Package testing provides fixture builders shared by repair KPI tests.
package testing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	"github.com/vsinha/repairkpi/pkg/domain/services"
)

// RepairHeader is a repair-record header row using the department's labels
var RepairHeader = []string{
	"工單號碼", "工程師", "客戶名稱", "收到日期", "初步處理日期", "報價日期", "維修日期", "完成日期",
	"施工天數", "工作天數", "維修服務選項", "需求", "機型", "狀態", "序號", "故障情況",
	"收費金額", "外修金額", "零件說明1", "零件號碼1", "零件說明2", "零件號碼2",
}

// RepairRow builds one data row by header label
func RepairRow(values map[string]string) []string {
	out := make([]string, len(RepairHeader))
	for i, h := range RepairHeader {
		out[i] = values[h]
	}
	return out
}

// RepairRecords prefixes rows with RepairHeader
func RepairRecords(rows ...map[string]string) [][]string {
	records := [][]string{RepairHeader}
	for _, r := range rows {
		records = append(records, RepairRow(r))
	}
	return records
}

// Date returns a UTC calendar date
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Range returns the inclusive window between two dates, panicking on bad input
func Range(start, end time.Time) entities.DateRange {
	r, err := entities.NewDateRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// CaseBuilder assembles a reconciled case with sensible defaults
type CaseBuilder struct {
	c *entities.Case
}

// NewCase starts a general-repair case for engineer Alice with TAT 1
func NewCase(id string) *CaseBuilder {
	c, err := entities.NewCase(id, "Alice")
	if err != nil {
		panic(err)
	}
	b := &CaseBuilder{c: c}
	return b.Type(entities.GeneralRepair)
}

// Engineer sets the engineer
func (b *CaseBuilder) Engineer(name string) *CaseBuilder {
	b.c.Engineer = name
	return b
}

// Type sets the canonical type, its label as raw text and the default points
func (b *CaseBuilder) Type(t entities.ServiceType) *CaseBuilder {
	b.c.ServiceType = t
	b.c.RawType = t.Label()
	b.c.Points = services.PointWeight(t, entities.DefaultWeightTable())
	return b
}

// Client sets the customer name
func (b *CaseBuilder) Client(name string) *CaseBuilder {
	b.c.Client = name
	return b
}

// RawType overrides the raw service-type text
func (b *CaseBuilder) RawType(raw string) *CaseBuilder {
	b.c.RawType = raw
	return b
}

// Serial sets the device serial number
func (b *CaseBuilder) Serial(sn string) *CaseBuilder {
	b.c.SerialNumber = sn
	return b
}

// Model sets the device model
func (b *CaseBuilder) Model(model string) *CaseBuilder {
	b.c.Model = model
	return b
}

// Completed sets the completion date
func (b *CaseBuilder) Completed(d time.Time) *CaseBuilder {
	b.c.CompletionDate = services.DateOnly(d)
	return b
}

// TAT sets both the net and raw TAT
func (b *CaseBuilder) TAT(days int) *CaseBuilder {
	b.c.TAT = days
	b.c.RawTAT = days
	return b
}

// Revenue sets the billed amount
func (b *CaseBuilder) Revenue(amount int64) *CaseBuilder {
	b.c.Revenue = decimal.NewFromInt(amount)
	return b
}

// ExternalCost sets the vendor cost
func (b *CaseBuilder) ExternalCost(amount int64) *CaseBuilder {
	b.c.ExternalRepairCost = decimal.NewFromInt(amount)
	return b
}

// Part appends a consumed part
func (b *CaseBuilder) Part(number, name string) *CaseBuilder {
	b.c.AddPart(entities.Part{PartNumber: entities.PartNumber(number), Name: name})
	return b
}

// Warranty marks the case as covered
func (b *CaseBuilder) Warranty() *CaseBuilder {
	b.c.IsUnderWarranty = true
	return b
}

// Recall flags the case as a repeat repair of ref
func (b *CaseBuilder) Recall(ref string) *CaseBuilder {
	b.c.IsRecall = true
	b.c.RecallReferenceID = ref
	return b
}

// Fault sets the fault description
func (b *CaseBuilder) Fault(text string) *CaseBuilder {
	b.c.FaultDescription = text
	return b
}

// Build returns the case
func (b *CaseBuilder) Build() *entities.Case {
	return b.c
}

// PriceTable builds a part cost lookup from whole-number costs
func PriceTable(entries map[string]int64) *services.PartCostLookup {
	costs := make(map[entities.PartNumber]decimal.Decimal, len(entries))
	for pn, cost := range entries {
		costs[entities.PartNumber(pn)] = decimal.NewFromInt(cost)
	}
	return services.NewPartCostLookup(costs)
}

// SampleAssets returns one asset per equipment family and status bucket
func SampleAssets() []entities.AssetRecord {
	return []entities.AssetRecord{
		{Company: "泰永", ProductName: "Trilogy 100 呼吸器", SerialNo: "TV001", Status: "正常"},
		{Company: "泰永", ProductName: "BiPAP A40", SerialNo: "TV002", Status: "維修中"},
		{Company: "泰永", ProductName: "EverFlo 製氧機", SerialNo: "OX001", Status: "待測"},
		{Company: "永定", ProductName: "加熱潮濕器", Model: "VH-1500", SerialNo: "HU001", Status: "報廢"},
		{Company: "永定", ProductName: "血壓計", SerialNo: "BP001", Status: "故障"},
	}
}
