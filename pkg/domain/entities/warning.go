package entities

// WarningLevel ranks a data-quality advisory
type WarningLevel int

const (
	WarningInfo WarningLevel = iota
	WarningCaution
	WarningSevere
)

// String method for WarningLevel enum
func (l WarningLevel) String() string {
	switch l {
	case WarningInfo:
		return "info"
	case WarningCaution:
		return "caution"
	case WarningSevere:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText encodes the level by its name
func (l WarningLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// WarningCode identifies the kind of advisory
type WarningCode string

const (
	WarningMissingEngineer  WarningCode = "missing_engineer"
	WarningMissingDate      WarningCode = "missing_completion_date"
	WarningHighTAT          WarningCode = "high_tat"
	WarningNegativeRevenue  WarningCode = "negative_revenue"
	WarningDuplicateIDs     WarningCode = "duplicate_ids_merged"
	WarningSkippedRows      WarningCode = "rows_skipped"
	WarningPendingClamped   WarningCode = "pending_window_clamped"
	WarningUnparseableDates WarningCode = "unparseable_dates"
)

// DataWarning is a non-fatal data-quality advisory surfaced next to a parse result
type DataWarning struct {
	Level   WarningLevel
	Code    WarningCode
	Count   int
	Message string
}
