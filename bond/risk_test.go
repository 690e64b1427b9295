package bond_test

import (
	"math"
	"testing"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/curve"
)

func TestModifiedFromMacaulay(t *testing.T) {
	tests := []struct {
		name  string
		mac   float64
		yield float64
		comp  curve.Compounding
		want  float64
	}{
		{"continuous unchanged", 7.5, 0.05, curve.Continuous, 7.5},
		{"annual", 8.4353, 0.04, curve.Annual, 8.4353 / 1.04},
		{"semiannual", 8, 0.06, curve.Semiannual, 8 / 1.03},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := bond.ModifiedFromMacaulay(tc.mac, tc.yield, tc.comp)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("ModifiedFromMacaulay = %v, want %v", got, tc.want)
			}
		})
	}
}

// A quadratic price function recovers its own coefficients exactly under the
// central-difference formulas.
func TestEffectiveRiskQuadratic(t *testing.T) {
	const dur, conv = 7.0, 60.0
	reprice := func(shift float64) float64 {
		return 100 * (1 - dur*shift + 0.5*conv*shift*shift)
	}

	gotDur, gotConv := bond.EffectiveRisk(reprice, 100, 25)
	if math.Abs(gotDur-dur) > 1e-9 {
		t.Fatalf("effective duration = %v, want %v", gotDur, dur)
	}
	if math.Abs(gotConv-conv) > 1e-6 {
		t.Fatalf("convexity = %v, want %v", gotConv, conv)
	}
}

func TestEffectiveRiskDefaultBump(t *testing.T) {
	var lastShift float64
	reprice := func(shift float64) float64 {
		lastShift = shift
		return 100 * (1 - 5*shift)
	}

	bond.EffectiveRisk(reprice, 100, 0)
	if math.Abs(math.Abs(lastShift)-0.001) > 1e-15 {
		t.Fatalf("bump = %v, want the default 10 bp", lastShift)
	}
}

// A single cashflow sitting exactly on a pillar loads that pillar alone.
func TestKeyRateDurationsZeroCoupon(t *testing.T) {
	crv := flatCurve(t, 0.04)
	s := &bond.Schedule{Flows: []bond.Cashflow{{Amount: 100, Kind: bond.FlowPrincipal, Notional: 100, Time: 5}}}

	krd, err := bond.KeyRateDurations(s, crv, 0, curve.Continuous, bond.RiskConfig{})
	if err != nil {
		t.Fatalf("KeyRateDurations: %v", err)
	}
	if len(krd) != 9 {
		t.Fatalf("pillar count = %d, want 9", len(krd))
	}
	for _, kr := range krd {
		if kr.TermYears == 5 {
			if math.Abs(kr.Duration-5) > 1e-3 {
				t.Fatalf("KRD at 5y = %v, want ~5", kr.Duration)
			}
			continue
		}
		if math.Abs(kr.Duration) > 1e-12 {
			t.Fatalf("KRD at %vy = %v, want 0", kr.TermYears, kr.Duration)
		}
	}
}

func TestKeyRateSumMatchesEffective(t *testing.T) {
	crv := flatCurve(t, 0.04)
	s, err := bond.BuildSchedule(tenYearBullet(), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	const spread = 0.002
	pv0, err := bond.PresentValue(s, crv, spread, curve.Annual)
	if err != nil {
		t.Fatalf("PresentValue: %v", err)
	}
	eff, _ := bond.EffectiveRisk(func(shift float64) float64 {
		pv, _ := bond.PresentValue(s, crv, spread+shift, curve.Annual)
		return pv
	}, pv0, 0)

	krd, err := bond.KeyRateDurations(s, crv, spread, curve.Annual, bond.RiskConfig{})
	if err != nil {
		t.Fatalf("KeyRateDurations: %v", err)
	}
	var sum float64
	for _, kr := range krd {
		sum += kr.Duration
	}
	if math.Abs(sum-eff) > 0.02*eff {
		t.Fatalf("KRD sum = %v, want within 2%% of effective duration %v", sum, eff)
	}
}

func TestDurationConvexity(t *testing.T) {
	crv := flatCurve(t, 0.04)
	s, err := bond.BuildSchedule(tenYearBullet(), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	rm, err := bond.DurationConvexity(s, crv, 0, curve.Annual, bond.RiskConfig{})
	if err != nil {
		t.Fatalf("DurationConvexity: %v", err)
	}

	if math.Abs(rm.Macaulay-8.4353) > 1e-3 {
		t.Fatalf("Macaulay = %v, want 8.4353", rm.Macaulay)
	}
	if math.Abs(rm.Modified-8.1109) > 1e-3 {
		t.Fatalf("Modified = %v, want 8.1109", rm.Modified)
	}
	if math.Abs(rm.Effective-rm.Modified) > 0.01*rm.Modified {
		t.Fatalf("Effective = %v, want within 1%% of modified %v", rm.Effective, rm.Modified)
	}
	if rm.Convexity <= 0 {
		t.Fatalf("Convexity = %v, want positive", rm.Convexity)
	}
	if math.Abs(rm.DV01-rm.Modified*100/1e4) > 1e-6 {
		t.Fatalf("DV01 = %v, want modified x dirty / 10^4", rm.DV01)
	}
	if len(rm.KeyRate) != 9 {
		t.Fatalf("KeyRate pillars = %d, want 9", len(rm.KeyRate))
	}
}
