// Package bond builds cashflow schedules from static bond terms and computes
// price, yield, spread, and risk analytics against zero curves.
package bond

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mhaugen/bondlib/calendar"
	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/daycount"
)

// InstrumentKind tags how a bond's coupons are determined. The tag is set by
// the reference-data layer during validation, never inferred from names.
type InstrumentKind string

const (
	KindFixed    InstrumentKind = "FIXED"
	KindFloating InstrumentKind = "FLOATING"
	KindZero     InstrumentKind = "ZERO"
)

// CallEntry is one issuer call right: the bond may be redeemed on Date at
// Price per 100 of the then-outstanding face.
type CallEntry struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// AmortizationRow schedules a principal repayment of Amount (per 100 of
// original face) on Date. Rows are snapped to the enclosing coupon period's
// payment date.
type AmortizationRow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// CustomFlow is one row of an authoritative externally-supplied schedule.
// When Terms.Custom is non-empty it replaces schedule generation entirely.
type CustomFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Terms is the static contractual description of a bond. Loaded once per
// calculation request and read-only afterwards.
type Terms struct {
	ID       string
	Kind     InstrumentKind
	Currency string

	IssueDate    time.Time
	MaturityDate time.Time
	// FirstCouponDate marks an irregular first coupon. Zero value means the
	// schedule rolls regularly back from maturity.
	FirstCouponDate time.Time

	// CouponRate is the fixed annual coupon as a decimal (0.04 = 4%).
	CouponRate float64
	// QuotedMarginBP is the floater's contractual spread over its index.
	QuotedMarginBP float64
	// CurrentFixing is the rate already set for the running floating period,
	// as a decimal. Zero means the running coupon is projected instead.
	CurrentFixing float64

	// Frequency is coupons per year. It must divide 12 months evenly.
	Frequency int

	DayCount    daycount.Convention
	BusinessDay calendar.Convention

	// Face is the notional the per-100 amounts scale from. Zero means 100.
	Face float64

	Amortization []AmortizationRow
	Calls        []CallEntry
	Custom       []CustomFlow
}

func (t Terms) face() float64 {
	if t.Face > 0 {
		return t.Face
	}
	return 100
}

// DefaultCompounding is the periodic basis matching the coupon frequency,
// annual when no frequency applies (zero-coupon bonds).
func (t Terms) DefaultCompounding() curve.Compounding {
	if t.Frequency >= 1 {
		return curve.Compounding(t.Frequency)
	}
	return curve.Annual
}

// CashflowKind classifies a schedule entry.
type CashflowKind int

const (
	FlowCoupon CashflowKind = iota
	FlowFloatingCoupon
	FlowPrincipal
)

func (k CashflowKind) String() string {
	switch k {
	case FlowCoupon:
		return "coupon"
	case FlowFloatingCoupon:
		return "floating-coupon"
	case FlowPrincipal:
		return "principal"
	default:
		return fmt.Sprintf("CashflowKind(%d)", int(k))
	}
}

// Cashflow is a single dated payment, in per-100-of-face units.
//
// Time is the discounting measure in years from the valuation date: coupon
// periods counted at the coupon frequency for fixed bonds (street yield
// convention), calendar ACT/365 years otherwise.
type Cashflow struct {
	Date         time.Time
	Amount       float64
	Kind         CashflowKind
	AccrualStart time.Time
	AccrualEnd   time.Time
	// Accrual is the period's year fraction under the bond's day count.
	Accrual float64
	// Notional is the outstanding face (per 100) the period accrues on.
	Notional float64
	Time     float64
}

// Schedule is a bond's ordered future cashflows for one valuation date.
// It is built once per valuation and never mutated afterwards; derived
// schedules (projection, call truncation) are copies.
type Schedule struct {
	Flows     []Cashflow
	Frequency int
	Kind      InstrumentKind
	Valuation time.Time

	// Accrued is the interest earned in the running period, per 100.
	Accrued float64

	// accruedFrac is the elapsed fraction of the running coupon period,
	// kept so floater projection can restate Accrued after filling amounts.
	accruedFrac float64

	// Discounting time grid over the unadjusted period dates.
	gridDates []time.Time
	gridTimes []float64
}

// TimeOf maps a date to the schedule's discounting measure. Dates between
// grid points interpolate linearly by calendar day; dates past the grid
// extrapolate on the last segment's slope.
func (s *Schedule) TimeOf(d time.Time) float64 {
	n := len(s.gridDates)
	if n == 0 || !d.After(s.Valuation) {
		return 0
	}
	if !d.After(s.gridDates[0]) {
		span := s.gridDates[0].Sub(s.Valuation)
		if span <= 0 {
			return s.gridTimes[0]
		}
		return s.gridTimes[0] * float64(d.Sub(s.Valuation)) / float64(span)
	}
	i := sort.Search(n, func(i int) bool { return !s.gridDates[i].Before(d) })
	if i >= n {
		last := n - 1
		if last == 0 {
			return s.gridTimes[0]
		}
		slope := (s.gridTimes[last] - s.gridTimes[last-1]) / float64(s.gridDates[last].Sub(s.gridDates[last-1]))
		return s.gridTimes[last] + slope*float64(d.Sub(s.gridDates[last]))
	}
	if s.gridDates[i].Equal(d) {
		return s.gridTimes[i]
	}
	t0, t1 := s.gridTimes[i-1], s.gridTimes[i]
	span := float64(s.gridDates[i].Sub(s.gridDates[i-1]))
	return t0 + (t1-t0)*float64(d.Sub(s.gridDates[i-1]))/span
}

// Maturity returns the final cashflow's payment date and discounting time.
func (s *Schedule) Maturity() (time.Time, float64) {
	if len(s.Flows) == 0 {
		return time.Time{}, 0
	}
	last := s.Flows[len(s.Flows)-1]
	return last.Date, last.Time
}

// HasFloating reports whether any cashflow is a floating coupon.
func (s *Schedule) HasFloating() bool {
	for _, cf := range s.Flows {
		if cf.Kind == FlowFloatingCoupon {
			return true
		}
	}
	return false
}

func (s *Schedule) clone() *Schedule {
	out := *s
	out.Flows = make([]Cashflow, len(s.Flows))
	copy(out.Flows, s.Flows)
	return &out
}

// ErrNotApplicable marks an analytic that has no meaning for the instrument,
// such as a discount margin on a fixed coupon bond.
var ErrNotApplicable = errors.New("not applicable")

// ErrNilCurve is returned when a required curve is missing.
var ErrNilCurve = errors.New("nil curve")

// InvalidInputError names the offending input field. It is surfaced
// immediately and never retried.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// ScheduleError reports structurally impossible bond terms. The bond is
// skipped by the caller, never silently substituted with defaults.
type ScheduleError struct {
	Reason string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("schedule: %s", e.Reason)
}
