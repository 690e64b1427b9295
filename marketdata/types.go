// Package marketdata carries curve pillars and bond terms between external
// data sources and the analytics engine. Rates and prices stay in exact
// decimal form until they cross into the engine, which works in float64
// decimals (0.04 = 4%).
package marketdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/calendar"
	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/daycount"
)

var oneHundred = decimal.NewFromInt(100)

// CurveRow is one zero-curve pillar as published: a tenor label and a rate
// in percent.
type CurveRow struct {
	Currency    string          `json:"currency"`
	AsOf        string          `json:"asof"`
	Tenor       string          `json:"tenor"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

// BuildCurve assembles pillars into a zero curve. All rows must agree on
// currency and as-of date; tenors and rates are validated here so engine
// code never sees raw feed values.
func BuildCurve(rows []CurveRow) (*curve.Zero, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("BuildCurve: %w", curve.ErrEmptyCurve)
	}
	currency := rows[0].Currency
	asof, err := parseDate(rows[0].AsOf)
	if err != nil {
		return nil, fmt.Errorf("BuildCurve: asof: %w", err)
	}

	pts := make([]curve.Point, len(rows))
	for i, r := range rows {
		if r.Currency != currency {
			return nil, fmt.Errorf("BuildCurve: mixed currencies %q and %q", currency, r.Currency)
		}
		if r.AsOf != rows[0].AsOf {
			return nil, fmt.Errorf("BuildCurve: mixed as-of dates %q and %q", rows[0].AsOf, r.AsOf)
		}
		term, err := curve.ParseTenor(r.Tenor)
		if err != nil {
			return nil, fmt.Errorf("BuildCurve: row %d: %w", i, err)
		}
		pts[i] = curve.Point{Term: term, Rate: r.RatePercent.Div(oneHundred).InexactFloat64()}
	}
	crv, err := curve.NewZero(currency, asof, pts)
	if err != nil {
		return nil, fmt.Errorf("BuildCurve: %w", err)
	}
	return crv, nil
}

// CallRow is an issuer call right as published: price in percent of the
// outstanding face.
type CallRow struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// AmortRow is a scheduled principal repayment per 100 of original face.
type AmortRow struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// FlowRow is one externally-supplied cashflow for bonds whose schedule is
// authoritative rather than generated.
type FlowRow struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// BondRecord is a bond's contractual terms and quoted price as loaded from a
// data source. Conventions arrive as identifiers and are parsed, never
// defaulted, on the way into the engine.
type BondRecord struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Currency string `json:"currency"`

	IssueDate       string `json:"issue_date"`
	MaturityDate    string `json:"maturity_date"`
	FirstCouponDate string `json:"first_coupon_date,omitempty"`

	CouponPercent        decimal.Decimal `json:"coupon_percent"`
	QuotedMarginBP       decimal.Decimal `json:"quoted_margin_bp,omitempty"`
	CurrentFixingPercent decimal.Decimal `json:"current_fixing_percent,omitempty"`

	Frequency   int    `json:"frequency"`
	DayCount    string `json:"day_count"`
	BusinessDay string `json:"business_day,omitempty"`

	Amortization []AmortRow `json:"amortization,omitempty"`
	Calls        []CallRow  `json:"calls,omitempty"`
	Custom       []FlowRow  `json:"custom,omitempty"`

	// CleanPrice is the quoted clean price per 100 face.
	CleanPrice decimal.Decimal `json:"clean_price"`
}

// Terms converts the record into engine terms. Every convention identifier
// must parse; a record that does not fully describe the bond is rejected
// here rather than misprized later.
func (r BondRecord) Terms() (bond.Terms, error) {
	fail := func(err error) (bond.Terms, error) {
		return bond.Terms{}, fmt.Errorf("bond %s: %w", r.ID, err)
	}

	var kind bond.InstrumentKind
	switch strings.ToUpper(strings.TrimSpace(r.Kind)) {
	case "FIXED":
		kind = bond.KindFixed
	case "FLOATING":
		kind = bond.KindFloating
	case "ZERO":
		kind = bond.KindZero
	default:
		return fail(fmt.Errorf("unknown kind %q", r.Kind))
	}

	issue, err := parseDate(r.IssueDate)
	if err != nil {
		return fail(fmt.Errorf("issue_date: %w", err))
	}
	maturity, err := parseDate(r.MaturityDate)
	if err != nil {
		return fail(fmt.Errorf("maturity_date: %w", err))
	}
	var firstCoupon time.Time
	if r.FirstCouponDate != "" {
		firstCoupon, err = parseDate(r.FirstCouponDate)
		if err != nil {
			return fail(fmt.Errorf("first_coupon_date: %w", err))
		}
	}

	dc, err := daycount.Parse(r.DayCount)
	if err != nil {
		return fail(err)
	}
	bdc, err := calendar.ParseConvention(r.BusinessDay)
	if err != nil {
		return fail(err)
	}

	terms := bond.Terms{
		ID:              r.ID,
		Kind:            kind,
		Currency:        r.Currency,
		IssueDate:       issue,
		MaturityDate:    maturity,
		FirstCouponDate: firstCoupon,
		CouponRate:      r.CouponPercent.Div(oneHundred).InexactFloat64(),
		QuotedMarginBP:  r.QuotedMarginBP.InexactFloat64(),
		CurrentFixing:   r.CurrentFixingPercent.Div(oneHundred).InexactFloat64(),
		Frequency:       r.Frequency,
		DayCount:        dc,
		BusinessDay:     bdc,
	}

	for _, a := range r.Amortization {
		d, err := parseDate(a.Date)
		if err != nil {
			return fail(fmt.Errorf("amortization: %w", err))
		}
		terms.Amortization = append(terms.Amortization, bond.AmortizationRow{Date: d, Amount: a.Amount.InexactFloat64()})
	}
	for _, c := range r.Calls {
		d, err := parseDate(c.Date)
		if err != nil {
			return fail(fmt.Errorf("calls: %w", err))
		}
		terms.Calls = append(terms.Calls, bond.CallEntry{Date: d, Price: c.Price.InexactFloat64()})
	}
	for _, f := range r.Custom {
		d, err := parseDate(f.Date)
		if err != nil {
			return fail(fmt.Errorf("custom: %w", err))
		}
		terms.Custom = append(terms.Custom, bond.CustomFlow{Date: d, Amount: f.Amount.InexactFloat64()})
	}
	return terms, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}
