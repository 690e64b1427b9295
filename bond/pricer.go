package bond

import (
	"github.com/mhaugen/bondlib/curve"
)

// PresentValue discounts every cashflow off the zero curve, with an additive
// spread (decimal) applied uniformly to the discount rate.
func PresentValue(s *Schedule, dc *curve.Zero, spread float64, comp curve.Compounding) (float64, error) {
	if s == nil || len(s.Flows) == 0 {
		return 0, &InvalidInputError{Field: "Schedule", Reason: "no cashflows"}
	}
	if dc == nil {
		return 0, ErrNilCurve
	}
	z := dc
	if spread != 0 {
		z = dc.Shifted(spread)
	}
	pv := 0.0
	for _, cf := range s.Flows {
		pv += cf.Amount * z.DF(cf.Time, comp)
	}
	return pv, nil
}

// PresentValueFlat discounts every cashflow at a single flat annualized
// yield under the given compounding basis.
func PresentValueFlat(s *Schedule, yield float64, comp curve.Compounding) float64 {
	pv := 0.0
	for _, cf := range s.Flows {
		pv += cf.Amount * curve.Discount(yield, cf.Time, comp)
	}
	return pv
}

// Macaulay is the PV-weighted average time to cashflow, in years, at a flat
// yield.
func Macaulay(s *Schedule, yield float64, comp curve.Compounding) float64 {
	var pv, weighted float64
	for _, cf := range s.Flows {
		d := cf.Amount * curve.Discount(yield, cf.Time, comp)
		pv += d
		weighted += cf.Time * d
	}
	if pv == 0 {
		return 0
	}
	return weighted / pv
}
