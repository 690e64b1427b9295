package bond_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/daycount"
)

func TestNextCall(t *testing.T) {
	calls := []bond.CallEntry{
		{Date: date(2028, 6, 1), Price: 100},
		{Date: date(2024, 6, 1), Price: 103},
		{Date: date(2026, 6, 1), Price: 101},
	}

	got, ok := bond.NextCall(calls, date(2025, 1, 1))
	if !ok {
		t.Fatalf("NextCall found nothing, want the 2026 call")
	}
	if !got.Date.Equal(date(2026, 6, 1)) {
		t.Fatalf("NextCall.Date = %v, want 2026-06-01", got.Date)
	}

	if _, ok := bond.NextCall(calls, date(2029, 1, 1)); ok {
		t.Fatalf("NextCall found a call past the last entry")
	}
	if _, ok := bond.NextCall(nil, date(2025, 1, 1)); ok {
		t.Fatalf("NextCall found a call in an empty schedule")
	}
}

func fiveYearSemiannual() bond.Terms {
	return bond.Terms{
		IssueDate:    date(2024, 1, 15),
		MaturityDate: date(2029, 1, 15),
		CouponRate:   0.04,
		Frequency:    2,
		DayCount:     daycount.Thirty360,
	}
}

func TestTruncateAtCallMidPeriod(t *testing.T) {
	s, err := bond.BuildSchedule(fiveYearSemiannual(), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	call := bond.CallEntry{Date: date(2026, 4, 15), Price: 101}
	trunc, err := bond.TruncateAtCall(s, call)
	if err != nil {
		t.Fatalf("TruncateAtCall: %v", err)
	}

	// Four full coupons, the accrued piece of the cut period, and the call
	// redemption.
	if len(trunc.Flows) != 6 {
		t.Fatalf("truncated flows = %d, want 6", len(trunc.Flows))
	}

	partial := trunc.Flows[4]
	if !partial.Date.Equal(call.Date) || !partial.AccrualEnd.Equal(call.Date) {
		t.Fatalf("partial coupon dated %v/%v, want the call date", partial.Date, partial.AccrualEnd)
	}
	// 90 of the 181 calendar days in 2026-01-15..2026-07-15.
	wantPartial := 2.0 * 90.0 / 181.0
	if math.Abs(partial.Amount-wantPartial) > 1e-12 {
		t.Fatalf("partial coupon = %v, want %v", partial.Amount, wantPartial)
	}

	last := trunc.Flows[5]
	if last.Kind != bond.FlowPrincipal || last.Amount != 101 {
		t.Fatalf("redemption flow = %+v, want the call price", last)
	}
	if !last.Date.Equal(call.Date) {
		t.Fatalf("redemption dated %v, want the call date", last.Date)
	}
	if last.Time <= trunc.Flows[3].Time || last.Time >= 2.5 {
		t.Fatalf("redemption time = %v, want between the bracketing coupons", last.Time)
	}
}

func TestTruncateAtCallOnCouponDate(t *testing.T) {
	s, err := bond.BuildSchedule(fiveYearSemiannual(), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	trunc, err := bond.TruncateAtCall(s, bond.CallEntry{Date: date(2026, 7, 15), Price: 100})
	if err != nil {
		t.Fatalf("TruncateAtCall: %v", err)
	}

	// Five full coupons plus the redemption; no partial period.
	if len(trunc.Flows) != 6 {
		t.Fatalf("truncated flows = %d, want 6", len(trunc.Flows))
	}
	lastCoupon := trunc.Flows[4]
	if lastCoupon.Kind != bond.FlowCoupon || lastCoupon.Amount != 2.0 {
		t.Fatalf("last coupon = %+v, want a full 2.00 coupon", lastCoupon)
	}
	if got := trunc.Flows[5].Time; got != 2.5 {
		t.Fatalf("redemption time = %v, want the coupon grid time 2.5", got)
	}
}

func TestTruncateAtCallAmortizing(t *testing.T) {
	terms := bond.Terms{
		IssueDate:    date(2024, 1, 15),
		MaturityDate: date(2027, 1, 15),
		CouponRate:   0.05,
		Frequency:    1,
		DayCount:     daycount.Thirty360,
		Amortization: []bond.AmortizationRow{{Date: date(2025, 1, 15), Amount: 30}},
	}
	s, err := bond.BuildSchedule(terms, date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	trunc, err := bond.TruncateAtCall(s, bond.CallEntry{Date: date(2025, 7, 15), Price: 102})
	if err != nil {
		t.Fatalf("TruncateAtCall: %v", err)
	}

	last := trunc.Flows[len(trunc.Flows)-1]
	// 30 amortized before the call, so the call redeems 70 at 102.
	want := 102.0 * 70.0 / 100.0
	if math.Abs(last.Amount-want) > 1e-12 {
		t.Fatalf("call redemption = %v, want %v on the outstanding 70", last.Amount, want)
	}
	if last.Notional != 70 {
		t.Fatalf("redemption notional = %v, want 70", last.Notional)
	}
}

func TestTruncateAtCallBounds(t *testing.T) {
	s, err := bond.BuildSchedule(fiveYearSemiannual(), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	cases := []struct {
		name string
		call bond.CallEntry
	}{
		{"on valuation", bond.CallEntry{Date: date(2024, 1, 15), Price: 100}},
		{"before valuation", bond.CallEntry{Date: date(2023, 6, 1), Price: 100}},
		{"on maturity", bond.CallEntry{Date: date(2029, 1, 15), Price: 100}},
		{"past maturity", bond.CallEntry{Date: date(2030, 1, 1), Price: 100}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := bond.TruncateAtCall(s, tc.call)
			var invalid *bond.InvalidInputError
			if !errors.As(err, &invalid) {
				t.Fatalf("TruncateAtCall(%v) err = %v, want InvalidInputError", tc.call.Date.Format(time.DateOnly), err)
			}
		})
	}
}
