package bond_test

import (
	"errors"
	"math"
	"testing"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/daycount"
)

func floaterTerms() bond.Terms {
	return bond.Terms{
		ID:           "FRN-3Y",
		Kind:         bond.KindFloating,
		IssueDate:    date(2024, 1, 15),
		MaturityDate: date(2027, 1, 15),
		Frequency:    4,
		DayCount:     daycount.Act360,
	}
}

// Forwards and discount factors read the same curve on the same clock, so a
// zero-margin floater at a reset date reprices to exactly par.
func TestProjectFloatingTelescopesToPar(t *testing.T) {
	crv := flatCurve(t, 0.035)
	s, err := bond.BuildSchedule(floaterTerms(), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	proj, err := bond.ProjectFloating(s, crv, 0, 0)
	if err != nil {
		t.Fatalf("ProjectFloating: %v", err)
	}

	var pv float64
	for _, cf := range proj.Flows {
		if cf.Kind == bond.FlowFloatingCoupon && cf.Amount <= 0 {
			t.Fatalf("floating coupon at %v projected to %v, want positive", cf.Date, cf.Amount)
		}
		pv += cf.Amount * crv.DF(cf.Time, curve.Continuous)
	}
	if math.Abs(pv-100) > 1e-9 {
		t.Fatalf("projected PV = %v, want exactly 100", pv)
	}
}

func TestDiscountMargin(t *testing.T) {
	crv := flatCurve(t, 0.035)
	s, err := bond.BuildSchedule(floaterTerms(), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	proj, err := bond.ProjectFloating(s, crv, 0, 0)
	if err != nil {
		t.Fatalf("ProjectFloating: %v", err)
	}

	dm, err := bond.DiscountMargin(proj, crv, 100)
	if err != nil {
		t.Fatalf("DiscountMargin: %v", err)
	}
	if math.Abs(dm) > 1e-6 {
		t.Fatalf("DiscountMargin = %v bp at par with zero margin, want 0", dm)
	}

	// The closed form is linear in price around the base PV.
	dmUp, err := bond.DiscountMargin(proj, crv, 101)
	if err != nil {
		t.Fatalf("DiscountMargin(101): %v", err)
	}
	dmDown, err := bond.DiscountMargin(proj, crv, 99)
	if err != nil {
		t.Fatalf("DiscountMargin(99): %v", err)
	}
	if dmUp <= dm || dm <= dmDown {
		t.Fatalf("DiscountMargin not monotone in price: %v, %v, %v", dmDown, dm, dmUp)
	}
	if math.Abs((dmUp-dm)-(dm-dmDown)) > 1e-9 {
		t.Fatalf("DiscountMargin not linear in price: up %v, down %v", dmUp-dm, dm-dmDown)
	}
}

func TestProjectFloatingUsesCurrentFixing(t *testing.T) {
	crv := flatCurve(t, 0.035)
	s, err := bond.BuildSchedule(floaterTerms(), date(2024, 2, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	proj, err := bond.ProjectFloating(s, crv, 50, 0.05)
	if err != nil {
		t.Fatalf("ProjectFloating: %v", err)
	}

	// The running 2024-01-15 to 2024-04-15 period pays the fixing plus the
	// 50 bp margin over 91 actual days.
	wantFirst := (0.05 + 0.005) * (91.0 / 360.0) * 100
	if got := proj.Flows[0].Amount; math.Abs(got-wantFirst) > 1e-12 {
		t.Fatalf("running coupon = %v, want %v from the fixing", got, wantFirst)
	}

	// Accrued restates off the fixed amount: 31 of 91 days elapsed.
	wantAccrued := wantFirst * 31.0 / 91.0
	if got := proj.Accrued; math.Abs(got-wantAccrued) > 1e-12 {
		t.Fatalf("Accrued = %v, want %v", got, wantAccrued)
	}

	// Later periods project off the curve, not the fixing.
	next := proj.Flows[1]
	fwd := (crv.DF(proj.Flows[0].Time, curve.Continuous)/crv.DF(next.Time, curve.Continuous) - 1) / next.Accrual
	wantNext := (fwd + 0.005) * next.Accrual * 100
	if math.Abs(next.Amount-wantNext) > 1e-12 {
		t.Fatalf("projected coupon = %v, want %v from the forward", next.Amount, wantNext)
	}
}

func TestFloatingNotApplicable(t *testing.T) {
	crv := flatCurve(t, 0.035)
	fixed := bond.Terms{
		IssueDate:    date(2024, 1, 15),
		MaturityDate: date(2027, 1, 15),
		CouponRate:   0.05,
		Frequency:    2,
		DayCount:     daycount.Thirty360,
	}
	s, err := bond.BuildSchedule(fixed, date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	if _, err := bond.ProjectFloating(s, crv, 0, 0); !errors.Is(err, bond.ErrNotApplicable) {
		t.Fatalf("ProjectFloating on fixed bond: err = %v, want ErrNotApplicable", err)
	}
	if _, err := bond.DiscountMargin(s, crv, 100); !errors.Is(err, bond.ErrNotApplicable) {
		t.Fatalf("DiscountMargin on fixed bond: err = %v, want ErrNotApplicable", err)
	}
}

func TestProjectFloatingNilCurve(t *testing.T) {
	s, err := bond.BuildSchedule(floaterTerms(), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if _, err := bond.ProjectFloating(s, nil, 0, 0); !errors.Is(err, bond.ErrNilCurve) {
		t.Fatalf("ProjectFloating(nil curve): err = %v, want ErrNilCurve", err)
	}
}
