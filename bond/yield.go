package bond

import (
	"fmt"

	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/solver"
)

// DefaultYieldBracket spans the plausible market range for annualized yields
// and spreads. The solver widens it geometrically when the root lies outside.
var DefaultYieldBracket = solver.Bracket{Lo: -0.05, Hi: 0.50}

// SolveYield finds the flat yield at which the schedule's discounted
// cashflows reproduce the observed dirty price.
func SolveYield(s *Schedule, dirty float64, comp curve.Compounding, b solver.Bracket, cfg solver.Config) (float64, error) {
	if s == nil || len(s.Flows) == 0 {
		return 0, &InvalidInputError{Field: "Schedule", Reason: "no cashflows"}
	}
	if dirty <= 0 {
		return 0, &InvalidInputError{Field: "DirtyPrice", Reason: "must be positive"}
	}
	if b == (solver.Bracket{}) {
		b = DefaultYieldBracket
	}
	y, err := solver.Solve(func(y float64) float64 {
		return PresentValueFlat(s, y, comp)
	}, dirty, b, cfg)
	if err != nil {
		return 0, fmt.Errorf("SolveYield: %w", err)
	}
	return y, nil
}
