package bond

import (
	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/solver"
)

// RiskConfig bounds the bump-and-reprice measures.
type RiskConfig struct {
	// BumpBP is the symmetric rate bump, in basis points, for effective
	// duration, convexity, and key-rate durations. Zero means the default.
	BumpBP float64
}

// DefaultRiskConfig matches the reference outputs: a 10 bp symmetric bump.
var DefaultRiskConfig = RiskConfig{BumpBP: 10}

func (c RiskConfig) bump() float64 {
	if c.BumpBP > 0 {
		return c.BumpBP * 1e-4
	}
	return DefaultRiskConfig.BumpBP * 1e-4
}

// KeyRateDuration is the price sensitivity to a bump of one curve pillar,
// the others held fixed.
type KeyRateDuration struct {
	TermYears float64 `json:"term_years"`
	Duration  float64 `json:"duration"`
}

// RiskMeasures bundles the duration family for one schedule.
//
// Modified duration derives from Macaulay, never from the effective-duration
// bump; the two are reported as independent measures.
type RiskMeasures struct {
	Macaulay  float64
	Modified  float64
	Effective float64
	Convexity float64
	DV01      float64
	KeyRate   []KeyRateDuration
}

// ModifiedFromMacaulay converts Macaulay duration to modified duration under
// a periodic compounding basis. Continuous compounding leaves it unchanged.
func ModifiedFromMacaulay(mac, yield float64, comp curve.Compounding) float64 {
	if comp <= curve.Continuous {
		return mac
	}
	return mac / (1 + yield/float64(comp))
}

// EffectiveRisk computes bump-and-reprice duration and convexity from a
// repricing function of a parallel rate shift (decimal).
//
//	effDur    = (PV(-d) - PV(+d)) / (2 PV0 d)
//	convexity = (PV(-d) + PV(+d) - 2 PV0) / (PV0 d^2)
func EffectiveRisk(reprice func(shift float64) float64, pv0, bumpBP float64) (effDur, convexity float64) {
	d := RiskConfig{BumpBP: bumpBP}.bump()
	up := reprice(+d)
	down := reprice(-d)
	effDur = (down - up) / (2 * pv0 * d)
	convexity = (down + up - 2*pv0) / (pv0 * d * d)
	return effDur, convexity
}

// KeyRateDurations bumps one curve pillar at a time and reprices, holding
// the schedule's cashflows fixed. Their sum approximates the total effective
// duration.
func KeyRateDurations(s *Schedule, dc *curve.Zero, spread float64, comp curve.Compounding, cfg RiskConfig) ([]KeyRateDuration, error) {
	pv0, err := PresentValue(s, dc, spread, comp)
	if err != nil {
		return nil, err
	}
	if pv0 == 0 {
		return nil, &InvalidInputError{Field: "Schedule", Reason: "zero present value"}
	}
	d := cfg.bump()

	points := dc.Points()
	out := make([]KeyRateDuration, 0, len(points))
	for i, p := range points {
		bumpedUp, err := dc.BumpedAt(i, +d)
		if err != nil {
			return nil, err
		}
		bumpedDown, err := dc.BumpedAt(i, -d)
		if err != nil {
			return nil, err
		}
		pvUp, err := PresentValue(s, bumpedUp, spread, comp)
		if err != nil {
			return nil, err
		}
		pvDown, err := PresentValue(s, bumpedDown, spread, comp)
		if err != nil {
			return nil, err
		}
		out = append(out, KeyRateDuration{
			TermYears: p.Term,
			Duration:  (pvDown - pvUp) / (2 * pv0 * d),
		})
	}
	return out, nil
}

// DurationConvexity prices the schedule off the curve and reports the full
// duration family: Macaulay and modified at the implied flat yield, and
// effective duration plus convexity from symmetric curve bumps.
func DurationConvexity(s *Schedule, dc *curve.Zero, spread float64, comp curve.Compounding, cfg RiskConfig) (RiskMeasures, error) {
	pv0, err := PresentValue(s, dc, spread, comp)
	if err != nil {
		return RiskMeasures{}, err
	}
	y, err := SolveYield(s, pv0, comp, DefaultYieldBracket, solver.DefaultConfig)
	if err != nil {
		return RiskMeasures{}, err
	}

	mac := Macaulay(s, y, comp)
	mod := ModifiedFromMacaulay(mac, y, comp)
	eff, conv := EffectiveRisk(func(shift float64) float64 {
		pv, _ := PresentValue(s, dc, spread+shift, comp)
		return pv
	}, pv0, cfg.BumpBP)
	krd, err := KeyRateDurations(s, dc, spread, comp, cfg)
	if err != nil {
		return RiskMeasures{}, err
	}

	return RiskMeasures{
		Macaulay:  mac,
		Modified:  mod,
		Effective: eff,
		Convexity: conv,
		DV01:      mod * pv0 / 1e4,
		KeyRate:   krd,
	}, nil
}
