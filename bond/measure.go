package bond

import (
	"encoding/json"
	"math"
)

// Unit tags the dimension of a reported metric.
type Unit string

const (
	UnitPercent     Unit = "percent"
	UnitBasisPoints Unit = "bp"
	UnitYears       Unit = "years"
	UnitUnitless    Unit = "unitless"
	UnitPer100      Unit = "per-100"
)

// Measure is a unit-tagged metric. Valid false means the metric was not
// computed for this instrument, which is never the same as zero.
type Measure struct {
	Value float64
	Unit  Unit
	Valid bool
}

// NewMeasure tags a computed value.
func NewMeasure(v float64, u Unit) Measure {
	return Measure{Value: v, Unit: u, Valid: true}
}

// NoMeasure marks a metric as not computed.
func NoMeasure(u Unit) Measure {
	return Measure{Value: math.NaN(), Unit: u}
}

type measureJSON struct {
	Value *float64 `json:"value"`
	Unit  Unit     `json:"unit"`
}

// MarshalJSON renders absent or non-finite values as null; encoding/json
// has no representation for NaN.
func (m Measure) MarshalJSON() ([]byte, error) {
	out := measureJSON{Unit: m.Unit}
	if m.Valid && !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0) {
		v := m.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

func (m *Measure) UnmarshalJSON(b []byte) error {
	var in measureJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if in.Value == nil {
		*m = NoMeasure(in.Unit)
		return nil
	}
	*m = NewMeasure(*in.Value, in.Unit)
	return nil
}
