package csv

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrMissingColumn is wrapped by ColumnError when a mandatory column is absent
var ErrMissingColumn = errors.New("mandatory column not found")

// ColumnError reports a mandatory column that could not be resolved
type ColumnError struct {
	Column string
	Label  string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("找不到「%s」欄位: %s column not found in header", e.Label, e.Column)
}

func (e *ColumnError) Unwrap() error {
	return ErrMissingColumn
}

// maxPartSlots is the number of numbered part name/number column pairs
const maxPartSlots = 5

// headerRule matches a header cell
type headerRule func(h string) bool

func anyOf(subs ...string) headerRule {
	return func(h string) bool {
		for _, s := range subs {
			if strings.Contains(h, s) {
				return true
			}
		}
		return false
	}
}

func exactly(s string) headerRule {
	return func(h string) bool { return h == s }
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// findColumn returns the index of the first header satisfying any rule, -1 if none
func findColumn(headers []string, rules ...headerRule) int {
	for i, h := range headers {
		for _, rule := range rules {
			if rule(h) {
				return i
			}
		}
	}
	return -1
}

type partColumns struct {
	name   int
	number int
}

// caseColumns is the resolved column layout of a repair-record table
type caseColumns struct {
	id           int
	engineer     int
	client       int
	received     int
	firstTriage  int
	quote        int
	repairStart  int
	completion   int
	construction int
	tat          int
	serviceType  int
	requirement  int
	model        int
	status       int
	serial       int
	fault        int
	revenue      int
	externalCost int
	parts        []partColumns
}

func resolveCaseColumns(header []string) (caseColumns, error) {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = cleanHeader(h)
	}

	cols := caseColumns{
		id:           findColumn(headers, anyOf("工單", "Order", "ID")),
		engineer:     findColumn(headers, anyOf("工程師", "Engineer")),
		client:       findColumn(headers, anyOf("客戶名稱", "Customer")),
		received:     findColumn(headers, anyOf("收到日期")),
		firstTriage:  findColumn(headers, anyOf("初步處理")),
		quote:        findColumn(headers, anyOf("報價日期")),
		repairStart:  findColumn(headers, anyOf("維修日期")),
		completion:   findColumn(headers, anyOf("完成日期")),
		construction: findColumn(headers, anyOf("施工天數")),
		tat:          findColumn(headers, anyOf("工作天數", "Days")),
		serviceType:  findColumn(headers, anyOf("維修服務選項", "Service", "維修類別")),
		requirement:  findColumn(headers, anyOf("需求")),
		model:        findColumn(headers, anyOf("機型", "Model")),
		status:       findColumn(headers, anyOf("狀態", "Status")),
		serial:       findColumn(headers, anyOf("序號", "S/N", "Serial")),
		fault:        findColumn(headers, anyOf("故障情況", "Fault", "Problem")),
		revenue:      findColumn(headers, anyOf("收費金額"), exactly("收費總計")),
		externalCost: findColumn(headers, anyOf("外修金額")),
	}

	if cols.engineer < 0 {
		return caseColumns{}, &ColumnError{Column: "engineer", Label: "工程師"}
	}
	if cols.completion < 0 {
		return caseColumns{}, &ColumnError{Column: "completion date", Label: "完成日期"}
	}

	for n := 1; n <= maxPartSlots; n++ {
		slot := partColumns{
			name:   findColumn(headers, anyOf(fmt.Sprintf("零件說明%d", n))),
			number: findColumn(headers, anyOf(fmt.Sprintf("零件號碼%d", n))),
		}
		if slot.name >= 0 {
			cols.parts = append(cols.parts, slot)
		}
	}
	generic := partColumns{
		name: findColumn(headers, func(h string) bool {
			return strings.Contains(h, "零件說明") && !hasDigit(h)
		}),
		number: findColumn(headers, func(h string) bool {
			return strings.Contains(h, "零件號碼") && !hasDigit(h)
		}),
	}
	if generic.name >= 0 {
		cols.parts = append(cols.parts, generic)
	}

	return cols, nil
}
