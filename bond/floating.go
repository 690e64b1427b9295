package bond

import (
	"fmt"
	"time"

	"github.com/mhaugen/bondlib/curve"
)

// ProjectFloating returns a copy of the schedule with floating coupon
// amounts filled from the projection curve's simple forward rates plus the
// quoted margin (basis points).
//
// The running period uses currentFixing when one is supplied (decimal);
// otherwise it is projected like the rest. Forward rates and the schedule's
// discounting times share the same ACT/365 clock, so a par floater at a
// reset date reprices to exactly 100 off its own curve.
func ProjectFloating(s *Schedule, proj *curve.Zero, quotedMarginBP, currentFixing float64) (*Schedule, error) {
	if s == nil || len(s.Flows) == 0 {
		return nil, &InvalidInputError{Field: "Schedule", Reason: "no cashflows"}
	}
	if proj == nil {
		return nil, ErrNilCurve
	}
	if !s.HasFloating() {
		return nil, ErrNotApplicable
	}

	out := s.clone()
	margin := quotedMarginBP * 1e-4
	running := true
	firstIdx := -1
	for i, cf := range out.Flows {
		if cf.Kind != FlowFloatingCoupon {
			continue
		}
		if firstIdx < 0 {
			firstIdx = i
		}
		var rate float64
		if running && currentFixing != 0 && cf.AccrualStart.Before(s.Valuation) {
			rate = currentFixing
		} else {
			rate = forwardOver(proj, s.Valuation, cf)
		}
		out.Flows[i].Amount = (rate + margin) * cf.Accrual * cf.Notional
		running = false
	}

	if firstIdx >= 0 && out.accruedFrac > 0 {
		out.Accrued = out.Flows[firstIdx].Amount * out.accruedFrac
	}
	return out, nil
}

// forwardOver is the simple forward implied by the projection curve over one
// accrual period, annualized with the period's own day count fraction.
func forwardOver(proj *curve.Zero, valuation time.Time, cf Cashflow) float64 {
	if cf.Accrual <= 0 {
		return 0
	}
	tS := yearsAct365(valuation, cf.AccrualStart)
	tE := yearsAct365(valuation, cf.AccrualEnd)
	dfS := proj.DF(tS, curve.Continuous)
	dfE := proj.DF(tE, curve.Continuous)
	if dfE == 0 {
		return 0
	}
	return (dfS/dfE - 1) / cf.Accrual
}

// DiscountMargin solves the floater margin in closed form: the spread over
// projected coupons whose unit annuity reconciles base PV with the observed
// dirty price. No iteration; discounting uses the curve's native continuous
// basis. Returns basis points.
func DiscountMargin(s *Schedule, disc *curve.Zero, dirty float64) (float64, error) {
	if s == nil || len(s.Flows) == 0 {
		return 0, &InvalidInputError{Field: "Schedule", Reason: "no cashflows"}
	}
	if disc == nil {
		return 0, ErrNilCurve
	}
	if dirty <= 0 {
		return 0, &InvalidInputError{Field: "DirtyPrice", Reason: "must be positive"}
	}

	var pvBase, annuity float64
	for _, cf := range s.Flows {
		df := disc.DF(cf.Time, curve.Continuous)
		pvBase += cf.Amount * df
		if cf.Kind == FlowFloatingCoupon {
			annuity += cf.Accrual * cf.Notional * df
		}
	}
	if annuity == 0 {
		if !s.HasFloating() {
			return 0, ErrNotApplicable
		}
		return 0, fmt.Errorf("DiscountMargin: zero margin annuity")
	}
	return (dirty - pvBase) / annuity * 1e4, nil
}
