package entities

import "fmt"

// WeightTable maps every canonical service type to its productivity point weight
type WeightTable map[ServiceType]float64

// DefaultWeightTable returns the department's standard point weights
func DefaultWeightTable() WeightTable {
	return WeightTable{
		GeneralRepair:           2.0,
		DifficultRepair:         4.0,
		HomeMaintenance:         2.0,
		HospitalMaintenance:     1.0,
		SimpleInspection:        0.5,
		ExternalRepair:          1.0,
		BulkRefurbishment:       1.5,
		HomeInstallation:        2.5,
		HospitalInstallation:    2.0,
		SleepCenterInstallation: 8.0,
		OtherService:            1.0,
	}
}

// Weight returns the weight for a type, 0 when the table has no entry
func (w WeightTable) Weight(t ServiceType) float64 {
	return w[t]
}

// Clone returns an independent copy of the table
func (w WeightTable) Clone() WeightTable {
	out := make(WeightTable, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Validate checks that all 11 types carry a non-negative weight
func (w WeightTable) Validate() error {
	if w == nil {
		return fmt.Errorf("weight table cannot be nil")
	}
	for _, t := range AllServiceTypes() {
		v, ok := w[t]
		if !ok {
			return fmt.Errorf("weight table missing key %q", t.Key())
		}
		if v < 0 {
			return fmt.Errorf("weight for %q cannot be negative, got %v", t.Key(), v)
		}
	}
	return nil
}

// WithOverrides returns a copy of the table with the keyed values replaced
func (w WeightTable) WithOverrides(overrides map[string]float64) (WeightTable, error) {
	out := w.Clone()
	for key, v := range overrides {
		t, err := ParseServiceTypeKey(key)
		if err != nil {
			return nil, err
		}
		out[t] = v
	}
	return out, out.Validate()
}
