package hullwhite

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/solver"
)

// DefaultFallbackVolBP is the normal yield volatility assumed when no market
// vol is configured, in basis points per annum.
const DefaultFallbackVolBP = 80.0

// BlackStrategy backs out an OAS without a term-structure model: the nearest
// embedded call is priced as a Black-76 option on the forward bond, the
// option value is added back to the observed price, and the OAS is the
// Z-spread of the de-optioned bullet. Results carry the fallback quality tag
// since the model ignores the call schedule beyond the nearest date.
// It implements bond.PricingStrategy.
type BlackStrategy struct {
	// VolBP is the normal yield vol driving the option value. Zero means
	// DefaultFallbackVolBP.
	VolBP float64
}

func (bs *BlackStrategy) Name() string { return "black-76" }

func (bs *BlackStrategy) SolveOAS(ctx context.Context, in bond.StrategyInput) (bond.StrategyResult, error) {
	if err := ctx.Err(); err != nil {
		return bond.StrategyResult{}, err
	}
	if in.Schedule == nil || len(in.Schedule.Flows) == 0 {
		return bond.StrategyResult{}, fmt.Errorf("SolveOAS: empty schedule")
	}
	if in.Discount == nil {
		return bond.StrategyResult{}, bond.ErrNilCurve
	}

	optionValue := 0.0
	if c, ok := bond.NextCall(in.Calls, in.Schedule.Valuation); ok {
		v, err := bs.callValue(in.Schedule, c, in.Discount)
		if err != nil {
			return bond.StrategyResult{}, fmt.Errorf("SolveOAS: %w", err)
		}
		optionValue = v
	}

	// The callable trades at the bullet less the issuer's option, so the
	// de-optioned bullet price is observed price plus option value.
	oas, err := bond.SolveZSpread(in.Schedule, in.Discount, in.DirtyPrice+optionValue, in.Compounding, solver.Bracket{}, solver.Config{})
	if err != nil {
		return bond.StrategyResult{}, fmt.Errorf("SolveOAS: %w", err)
	}

	return bond.StrategyResult{
		OASBP:   oas * 1e4,
		Quality: bond.QualityFallback,
		Method:  bs.Name(),
	}, nil
}

// callValue prices the issuer's right to buy the remaining bond back at the
// call via Black-76 on the forward bond price, with the normal yield vol
// mapped to a relative price vol through the forward bond's duration.
func (bs *BlackStrategy) callValue(s *bond.Schedule, c bond.CallEntry, dc *curve.Zero) (float64, error) {
	tau := s.TimeOf(c.Date)
	if tau <= 0 {
		return 0, nil
	}

	trunc, err := bond.TruncateAtCall(s, c)
	if err != nil {
		return 0, err
	}
	strike := 0.0
	for _, cf := range trunc.Flows {
		if cf.Kind == bond.FlowPrincipal && cf.Date.Equal(c.Date) {
			strike += cf.Amount
		}
	}

	dfTau := dc.DF(tau, curve.Continuous)

	// Forward value of the flows surviving past the call, and their
	// discounted mean time to payment for the vol mapping.
	fwd := 0.0
	weighted := 0.0
	for _, cf := range s.Flows {
		if cf.Time <= tau {
			continue
		}
		pv := cf.Amount * dc.DF(cf.Time, curve.Continuous)
		fwd += pv
		weighted += pv * (cf.Time - tau)
	}
	if fwd <= 0 || strike <= 0 {
		return 0, nil
	}
	duration := weighted / fwd
	fwd /= dfTau

	volBP := bs.VolBP
	if volBP <= 0 {
		volBP = DefaultFallbackVolBP
	}
	priceVol := duration * volBP * 1e-4
	if priceVol <= 0 {
		return 0, nil
	}

	sd := priceVol * math.Sqrt(tau)
	d1 := (math.Log(fwd/strike) + 0.5*sd*sd) / sd
	d2 := d1 - sd
	n := distuv.UnitNormal
	return dfTau * (fwd*n.CDF(d1) - strike*n.CDF(d2)), nil
}
