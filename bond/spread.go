package bond

import (
	"fmt"

	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/solver"
)

// SolveZSpread finds the constant shift (decimal) to every zero rate on the
// discount curve at which the curve-discounted PV equals the dirty price.
func SolveZSpread(s *Schedule, dc *curve.Zero, dirty float64, comp curve.Compounding, b solver.Bracket, cfg solver.Config) (float64, error) {
	if s == nil || len(s.Flows) == 0 {
		return 0, &InvalidInputError{Field: "Schedule", Reason: "no cashflows"}
	}
	if dc == nil {
		return 0, ErrNilCurve
	}
	if dirty <= 0 {
		return 0, &InvalidInputError{Field: "DirtyPrice", Reason: "must be positive"}
	}
	if b == (solver.Bracket{}) {
		b = DefaultYieldBracket
	}
	sp, err := solver.Solve(func(sp float64) float64 {
		pv, _ := PresentValue(s, dc, sp, comp)
		return pv
	}, dirty, b, cfg)
	if err != nil {
		return 0, fmt.Errorf("SolveZSpread: %w", err)
	}
	return sp, nil
}

// GSpread is the yield pickup over the benchmark curve's zero rate at the
// bond's maturity term. A direct lookup and subtraction, no solve.
func GSpread(ytm float64, s *Schedule, benchmark *curve.Zero) (float64, error) {
	if s == nil || len(s.Flows) == 0 {
		return 0, &InvalidInputError{Field: "Schedule", Reason: "no cashflows"}
	}
	if benchmark == nil {
		return 0, ErrNilCurve
	}
	_, tMat := s.Maturity()
	return ytm - benchmark.Rate(tMat), nil
}
