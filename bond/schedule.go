package bond

import (
	"fmt"
	"sort"
	"time"

	"github.com/mhaugen/bondlib/calendar"
	"github.com/mhaugen/bondlib/daycount"
	"github.com/mhaugen/bondlib/utils"
)

// BuildSchedule turns static bond terms into the ordered future cashflows
// for one valuation date.
//
// Coupon dates roll backward from maturity at the stated frequency (SWPM
// convention), honoring an explicit first-coupon date; payment dates are
// business-day adjusted on the currency's calendar while accrual runs over
// the unadjusted schedule dates. An irregular first period accrues its
// actual elapsed fraction under the declared day count. Amortization rows
// override scheduled principal and coupons accrue on the then-outstanding
// notional. An authoritative custom schedule bypasses generation entirely,
// its dates still adjusted.
//
// Floating coupons are emitted with zero amounts; ProjectFloating fills them
// from a projection curve.
func BuildSchedule(terms Terms, valuation time.Time) (*Schedule, error) {
	if terms.IssueDate.IsZero() || terms.MaturityDate.IsZero() {
		return nil, &ScheduleError{Reason: "issue and maturity dates are required"}
	}
	if !terms.MaturityDate.After(terms.IssueDate) {
		return nil, &ScheduleError{Reason: fmt.Sprintf("maturity %s not after issue %s",
			terms.MaturityDate.Format("2006-01-02"), terms.IssueDate.Format("2006-01-02"))}
	}
	switch terms.Kind {
	case KindFixed, KindFloating, KindZero:
	case "":
		terms.Kind = KindFixed
	default:
		return nil, &InvalidInputError{Field: "Kind", Reason: fmt.Sprintf("unknown instrument kind %q", terms.Kind)}
	}
	if terms.BusinessDay == "" {
		terms.BusinessDay = calendar.Unadjusted
	}

	if len(terms.Custom) > 0 {
		return buildCustom(terms, valuation)
	}
	if terms.Kind == KindZero {
		return buildZero(terms, valuation)
	}

	if terms.Frequency <= 0 {
		return nil, &ScheduleError{Reason: fmt.Sprintf("non-positive frequency %d", terms.Frequency)}
	}
	if 12%terms.Frequency != 0 {
		return nil, &ScheduleError{Reason: fmt.Sprintf("frequency %d does not divide the year", terms.Frequency)}
	}
	return buildCoupon(terms, valuation)
}

type period struct {
	start   time.Time // unadjusted accrual start
	end     time.Time // unadjusted accrual end
	pay     time.Time // adjusted payment date
	regular bool
}

func buildCoupon(terms Terms, valuation time.Time) (*Schedule, error) {
	cal := calendar.ForCurrency(terms.Currency)
	months := 12 / terms.Frequency
	m := float64(terms.Frequency)

	yf := func(a, b time.Time) (float64, error) {
		f, err := daycount.YearFraction(a, b, terms.DayCount)
		if err != nil {
			return 0, fmt.Errorf("BuildSchedule: %w", err)
		}
		return f, nil
	}

	// Unadjusted coupon dates, rolled backward from maturity.
	floor := terms.IssueDate
	if !terms.FirstCouponDate.IsZero() {
		if !terms.FirstCouponDate.After(terms.IssueDate) || terms.FirstCouponDate.After(terms.MaturityDate) {
			return nil, &ScheduleError{Reason: "first coupon date outside issue/maturity range"}
		}
		floor = terms.FirstCouponDate
	}
	var dates []time.Time
	for cur := terms.MaturityDate; cur.After(floor); cur = utils.AddMonth(cur, -months) {
		dates = append([]time.Time{cur}, dates...)
	}
	if !terms.FirstCouponDate.IsZero() {
		dates = append([]time.Time{terms.FirstCouponDate}, dates...)
	} else if len(dates) > 1 {
		// Drop a backward-rolled date landing within a week of issue to
		// avoid a tiny stub period (SWPM convention).
		if d := daysBetween(terms.IssueDate, dates[0]); d > 0 && d <= 7 {
			dates = dates[1:]
		}
	}
	if len(dates) == 0 || !dates[len(dates)-1].Equal(terms.MaturityDate) {
		dates = append(dates, terms.MaturityDate)
	}

	starts := append([]time.Time{terms.IssueDate}, dates...)
	periods := make([]period, 0, len(dates))
	for i := 0; i < len(dates); i++ {
		pay, err := calendar.AdjustDate(cal, dates[i], terms.BusinessDay)
		if err != nil {
			return nil, fmt.Errorf("BuildSchedule: %w", err)
		}
		periods = append(periods, period{
			start:   starts[i],
			end:     starts[i+1],
			pay:     pay,
			regular: utils.AddMonth(starts[i+1], -months).Equal(starts[i]),
		})
	}

	// Outstanding-notional ladder over amortization rows (per 100 of face).
	couponNotional := make([]float64, len(periods))
	principalAt := make([]float64, len(periods))
	rows := append([]AmortizationRow(nil), terms.Amortization...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	outstanding := 100.0
	rowIdx := 0
	for i, p := range periods {
		couponNotional[i] = outstanding
		for rowIdx < len(rows) && !rows[rowIdx].Date.After(p.end) {
			r := rows[rowIdx]
			if !r.Date.After(p.start) && i == 0 {
				return nil, &InvalidInputError{Field: "Amortization", Reason: fmt.Sprintf("row dated %s on or before issue", r.Date.Format("2006-01-02"))}
			}
			principalAt[i] += r.Amount
			outstanding -= r.Amount
			rowIdx++
		}
		if outstanding < -1e-9 {
			return nil, &InvalidInputError{Field: "Amortization", Reason: "repayments exceed face"}
		}
	}
	if rowIdx < len(rows) {
		return nil, &InvalidInputError{Field: "Amortization", Reason: fmt.Sprintf("row dated %s after maturity", rows[rowIdx].Date.Format("2006-01-02"))}
	}
	principalAt[len(periods)-1] += outstanding

	// First period still paying; everything before it has settled.
	iNext := -1
	for i, p := range periods {
		if p.end.After(valuation) {
			iNext = i
			break
		}
	}
	if iNext < 0 {
		return nil, &ScheduleError{Reason: "no cashflows after valuation date"}
	}

	// Discounting times. Fixed bonds count coupon periods from the next
	// coupon (street convention, ACT/ACT ICMA style); floaters use calendar
	// years so projected forwards and discount factors share one clock.
	times := make([]float64, len(periods))
	if terms.Kind == KindFloating {
		for i := iNext; i < len(periods); i++ {
			times[i] = yearsAct365(valuation, periods[i].end)
		}
	} else {
		base := periods[iNext].start
		if !periods[iNext].regular {
			base = utils.AddMonth(periods[iNext].end, -months)
		}
		wNum, err := yf(valuation, periods[iNext].end)
		if err != nil {
			return nil, err
		}
		wDen, err := yf(base, periods[iNext].end)
		if err != nil {
			return nil, err
		}
		if wDen <= 0 {
			return nil, &ScheduleError{Reason: "degenerate coupon period"}
		}
		cum := wNum / wDen
		times[iNext] = cum / m
		for i := iNext + 1; i < len(periods); i++ {
			plen := 1.0
			if !periods[i].regular {
				f, err := yf(periods[i].start, periods[i].end)
				if err != nil {
					return nil, err
				}
				plen = f * m
			}
			cum += plen
			times[i] = cum / m
		}
	}

	s := &Schedule{
		Frequency: terms.Frequency,
		Kind:      terms.Kind,
		Valuation: valuation,
	}

	for i := iNext; i < len(periods); i++ {
		p := periods[i]
		accr, err := yf(p.start, p.end)
		if err != nil {
			return nil, err
		}

		kind := FlowCoupon
		amount := 0.0
		if terms.Kind == KindFloating {
			kind = FlowFloatingCoupon
		} else if p.regular {
			amount = couponNotional[i] * terms.CouponRate / m
		} else {
			amount = couponNotional[i] * terms.CouponRate * accr
		}
		s.Flows = append(s.Flows, Cashflow{
			Date:         p.pay,
			Amount:       amount,
			Kind:         kind,
			AccrualStart: p.start,
			AccrualEnd:   p.end,
			Accrual:      accr,
			Notional:     couponNotional[i],
			Time:         times[i],
		})
		if principalAt[i] > 0 {
			s.Flows = append(s.Flows, Cashflow{
				Date:     p.pay,
				Amount:   principalAt[i],
				Kind:     FlowPrincipal,
				Notional: couponNotional[i],
				Time:     times[i],
			})
		}
		s.gridDates = append(s.gridDates, p.end)
		s.gridTimes = append(s.gridTimes, times[i])
	}

	// Accrued interest of the running period, from the declared day count.
	run := periods[iNext]
	if run.start.Before(valuation) {
		elapsed, err := yf(run.start, valuation)
		if err != nil {
			return nil, err
		}
		full, err := yf(run.start, run.end)
		if err != nil {
			return nil, err
		}
		if full > 0 {
			s.accruedFrac = elapsed / full
			s.Accrued = s.Flows[0].Amount * s.accruedFrac
		}
	}

	return s, nil
}

func buildZero(terms Terms, valuation time.Time) (*Schedule, error) {
	cal := calendar.ForCurrency(terms.Currency)
	pay, err := calendar.AdjustDate(cal, terms.MaturityDate, terms.BusinessDay)
	if err != nil {
		return nil, fmt.Errorf("BuildSchedule: %w", err)
	}
	if !pay.After(valuation) {
		return nil, &ScheduleError{Reason: "no cashflows after valuation date"}
	}
	freq := terms.Frequency
	if freq < 1 {
		freq = 1
	}
	t := yearsAct365(valuation, pay)
	return &Schedule{
		Flows: []Cashflow{{
			Date:         pay,
			Amount:       100,
			Kind:         FlowPrincipal,
			AccrualStart: terms.IssueDate,
			AccrualEnd:   terms.MaturityDate,
			Notional:     100,
			Time:         t,
		}},
		Frequency: freq,
		Kind:      KindZero,
		Valuation: valuation,
		gridDates: []time.Time{pay},
		gridTimes: []float64{t},
	}, nil
}

func buildCustom(terms Terms, valuation time.Time) (*Schedule, error) {
	cal := calendar.ForCurrency(terms.Currency)
	rows := append([]CustomFlow(nil), terms.Custom...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	s := &Schedule{
		Frequency: terms.Frequency,
		Kind:      terms.Kind,
		Valuation: valuation,
	}
	for i, row := range rows {
		pay, err := calendar.AdjustDate(cal, row.Date, terms.BusinessDay)
		if err != nil {
			return nil, fmt.Errorf("BuildSchedule: %w", err)
		}
		if !pay.After(valuation) {
			continue
		}
		kind := FlowCoupon
		if i == len(rows)-1 {
			kind = FlowPrincipal
		}
		t := yearsAct365(valuation, pay)
		s.Flows = append(s.Flows, Cashflow{
			Date:     pay,
			Amount:   row.Amount,
			Kind:     kind,
			Notional: 100,
			Time:     t,
		})
		s.gridDates = append(s.gridDates, pay)
		s.gridTimes = append(s.gridTimes, t)
	}
	if len(s.Flows) == 0 {
		return nil, &ScheduleError{Reason: "no cashflows after valuation date"}
	}
	return s, nil
}

// daysBetween returns the number of calendar days from start to end.
func daysBetween(start, end time.Time) int {
	return int(utils.Days(start, end))
}

func yearsAct365(a, b time.Time) float64 {
	return utils.Days(a, b) / 365
}
