package services

import (
	"fmt"

	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// HighTATThreshold is the TAT above which a case is reported as suspicious
const HighTATThreshold = 30

// ParseCounts are the parser-side tallies that feed data-quality advisories
type ParseCounts struct {
	SkippedRows      int
	DuplicateIDs     int
	PendingClamped   int
	UnparseableDates int
}

// AssessDataQuality lists advisories for the full parsed case list. It never
// fails; an empty list means nothing worth reporting.
func AssessDataQuality(cases []*entities.Case, counts ParseCounts) []entities.DataWarning {
	var noEngineer, noDate, highTAT, negativeRevenue int
	for _, c := range cases {
		if c.Engineer == "" {
			noEngineer++
		}
		if !c.IsDated() {
			noDate++
		}
		if c.TAT > HighTATThreshold {
			highTAT++
		}
		if c.Revenue.IsNegative() {
			negativeRevenue++
		}
	}

	var warnings []entities.DataWarning
	add := func(level entities.WarningLevel, code entities.WarningCode, count int, format string) {
		if count > 0 {
			warnings = append(warnings, entities.DataWarning{
				Level:   level,
				Code:    code,
				Count:   count,
				Message: fmt.Sprintf(format, count),
			})
		}
	}
	add(entities.WarningSevere, entities.WarningMissingEngineer, noEngineer, "%d 筆工單缺少工程師欄位")
	add(entities.WarningSevere, entities.WarningMissingDate, noDate, "%d 筆工單缺少完成日期")
	add(entities.WarningCaution, entities.WarningHighTAT, highTAT, "%d 筆工單 TAT 超過 30 天（可能異常）")
	add(entities.WarningCaution, entities.WarningNegativeRevenue, negativeRevenue, "%d 筆工單收費金額為負值")
	add(entities.WarningCaution, entities.WarningPendingClamped, counts.PendingClamped, "%d 筆工單報價日晚於維修開始日（等料天數以 0 計）")
	add(entities.WarningCaution, entities.WarningUnparseableDates, counts.UnparseableDates, "%d 個日期欄位無法解析")
	add(entities.WarningInfo, entities.WarningDuplicateIDs, counts.DuplicateIDs, "%d 筆重複工單號碼（已合併處理）")
	add(entities.WarningInfo, entities.WarningSkippedRows, counts.SkippedRows, "%d 列資料不足已略過")
	return warnings
}
