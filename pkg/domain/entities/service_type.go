package entities

import "fmt"

// ServiceType is the canonical service classification of a repair ticket
type ServiceType int

const (
	GeneralRepair ServiceType = iota
	DifficultRepair
	ExternalRepair
	HomeMaintenance
	HospitalMaintenance
	SimpleInspection
	HomeInstallation
	HospitalInstallation
	SleepCenterInstallation
	BulkRefurbishment
	OtherService
)

// AllServiceTypes returns the canonical types in declaration order
func AllServiceTypes() []ServiceType {
	return []ServiceType{
		GeneralRepair,
		DifficultRepair,
		ExternalRepair,
		HomeMaintenance,
		HospitalMaintenance,
		SimpleInspection,
		HomeInstallation,
		HospitalInstallation,
		SleepCenterInstallation,
		BulkRefurbishment,
		OtherService,
	}
}

// String method for ServiceType enum
func (t ServiceType) String() string {
	switch t {
	case GeneralRepair:
		return "GeneralRepair"
	case DifficultRepair:
		return "DifficultRepair"
	case ExternalRepair:
		return "ExternalRepair"
	case HomeMaintenance:
		return "HomeMaintenance"
	case HospitalMaintenance:
		return "HospitalMaintenance"
	case SimpleInspection:
		return "SimpleInspection"
	case HomeInstallation:
		return "HomeInstallation"
	case HospitalInstallation:
		return "HospitalInstallation"
	case SleepCenterInstallation:
		return "SleepCenterInstallation"
	case BulkRefurbishment:
		return "BulkRefurbishment"
	case OtherService:
		return "OtherService"
	default:
		return "Unknown"
	}
}

// Label returns the department's own name for the type
func (t ServiceType) Label() string {
	switch t {
	case GeneralRepair:
		return "一般維修"
	case DifficultRepair:
		return "困難維修"
	case ExternalRepair:
		return "外修判定"
	case HomeMaintenance:
		return "居家保養"
	case HospitalMaintenance:
		return "醫院保養"
	case SimpleInspection:
		return "簡易檢測"
	case HomeInstallation:
		return "居家裝機"
	case HospitalInstallation:
		return "醫院安裝"
	case SleepCenterInstallation:
		return "睡眠中心"
	case BulkRefurbishment:
		return "批量整新"
	default:
		return "其他預設"
	}
}

// Key returns the short configuration key used by weight and SLA tables
func (t ServiceType) Key() string {
	switch t {
	case GeneralRepair:
		return "gen"
	case DifficultRepair:
		return "hard"
	case ExternalRepair:
		return "ext"
	case HomeMaintenance:
		return "home"
	case HospitalMaintenance:
		return "hosp_maint"
	case SimpleInspection:
		return "chk"
	case HomeInstallation:
		return "ins"
	case HospitalInstallation:
		return "hosp_ins"
	case SleepCenterInstallation:
		return "ctr"
	case BulkRefurbishment:
		return "ref"
	default:
		return "def"
	}
}

// ParseServiceTypeKey resolves a configuration key back to its type
func ParseServiceTypeKey(key string) (ServiceType, error) {
	for _, t := range AllServiceTypes() {
		if t.Key() == key {
			return t, nil
		}
	}
	return OtherService, fmt.Errorf("unknown service type key: %q", key)
}

// MarshalText encodes the type by its configuration key, so maps keyed by
// ServiceType serialize with stable, readable keys.
func (t ServiceType) MarshalText() ([]byte, error) {
	return []byte(t.Key()), nil
}

// UnmarshalText is the inverse of MarshalText
func (t *ServiceType) UnmarshalText(text []byte) error {
	parsed, err := ParseServiceTypeKey(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Category returns the fixed ticket family of the type
func (t ServiceType) Category() Category {
	switch t {
	case GeneralRepair, DifficultRepair, ExternalRepair:
		return RepairCategory
	case HomeMaintenance, HospitalMaintenance, SimpleInspection:
		return MaintenanceCategory
	case HomeInstallation, HospitalInstallation, SleepCenterInstallation:
		return InstallationCategory
	case BulkRefurbishment:
		return RefurbishmentCategory
	default:
		return OtherCategory
	}
}

// IsRepair reports whether the type belongs to the Repair family
func (t ServiceType) IsRepair() bool {
	return t.Category() == RepairCategory
}

// CountsTowardRecallRate reports whether a case of this type enters the
// recall-rate (and first-time-fix) denominator.
func (t ServiceType) CountsTowardRecallRate() bool {
	switch t {
	case SimpleInspection, GeneralRepair, DifficultRepair, ExternalRepair:
		return true
	default:
		return false
	}
}

// Category groups service types into ticket families
type Category int

const (
	RepairCategory Category = iota
	MaintenanceCategory
	InstallationCategory
	RefurbishmentCategory
	OtherCategory
)

// String method for Category enum
func (c Category) String() string {
	switch c {
	case RepairCategory:
		return "Repair"
	case MaintenanceCategory:
		return "Maintenance"
	case InstallationCategory:
		return "Installation"
	case RefurbishmentCategory:
		return "Refurbishment"
	default:
		return "Other"
	}
}
