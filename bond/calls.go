package bond

import (
	"sort"
	"time"
)

// NextCall returns the first call entry strictly after the valuation date.
func NextCall(calls []CallEntry, valuation time.Time) (CallEntry, bool) {
	best := CallEntry{}
	found := false
	for _, c := range calls {
		if !c.Date.After(valuation) {
			continue
		}
		if !found || c.Date.Before(best.Date) {
			best = c
			found = true
		}
	}
	return best, found
}

// futureCalls returns the exercisable call entries sorted by date.
func futureCalls(calls []CallEntry, valuation, maturity time.Time) []CallEntry {
	out := make([]CallEntry, 0, len(calls))
	for _, c := range calls {
		if c.Date.After(valuation) && c.Date.Before(maturity) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// TruncateAtCall returns a copy of the schedule ending at the call date,
// with the call price (per 100 of then-outstanding face) standing in for all
// later cashflows. A coupon period the call date cuts short contributes its
// accrued portion, pro-rated by calendar day.
func TruncateAtCall(s *Schedule, call CallEntry) (*Schedule, error) {
	if s == nil || len(s.Flows) == 0 {
		return nil, &InvalidInputError{Field: "Schedule", Reason: "no cashflows"}
	}
	if !call.Date.After(s.Valuation) {
		return nil, &InvalidInputError{Field: "Calls", Reason: "call date not after valuation"}
	}
	matDate, _ := s.Maturity()
	if !call.Date.Before(matDate) {
		return nil, &InvalidInputError{Field: "Calls", Reason: "call date not before maturity"}
	}

	out := s.clone()
	out.Flows = out.Flows[:0]

	outstanding := s.Flows[0].Notional
	var partial *Cashflow
	for _, cf := range s.Flows {
		switch cf.Kind {
		case FlowPrincipal:
			if cf.Date.Before(call.Date) {
				out.Flows = append(out.Flows, cf)
				outstanding -= cf.Amount
			}
		default:
			if !cf.AccrualEnd.After(call.Date) {
				out.Flows = append(out.Flows, cf)
				continue
			}
			if cf.AccrualStart.Before(call.Date) && partial == nil {
				p := cf
				num := call.Date.Sub(cf.AccrualStart)
				den := cf.AccrualEnd.Sub(cf.AccrualStart)
				if den > 0 {
					p.Amount = cf.Amount * float64(num) / float64(den)
					p.Date = call.Date
					p.AccrualEnd = call.Date
					p.Time = s.TimeOf(call.Date)
					partial = &p
				}
			}
		}
	}
	if partial != nil {
		out.Flows = append(out.Flows, *partial)
	}
	out.Flows = append(out.Flows, Cashflow{
		Date:     call.Date,
		Amount:   call.Price * outstanding / 100,
		Kind:     FlowPrincipal,
		Notional: outstanding,
		Time:     s.TimeOf(call.Date),
	})
	return out, nil
}
