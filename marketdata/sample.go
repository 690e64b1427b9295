package marketdata

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mhaugen/bondlib/curve"
)

//go:embed sample
var sampleFS embed.FS

// SampleCurve returns the bundled USD zero curve (as of 2024-01-15), used by
// the command-line tools and examples when no data source is wired.
func SampleCurve() (*curve.Zero, error) {
	raw, err := sampleFS.ReadFile("sample/usd_curve.json")
	if err != nil {
		return nil, fmt.Errorf("SampleCurve: %w", err)
	}
	var rows []CurveRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("SampleCurve: %w", err)
	}
	return BuildCurve(rows)
}

// SampleBonds returns the bundled bond records: a ten-year bullet, a
// callable corporate and a floater.
func SampleBonds() ([]BondRecord, error) {
	raw, err := sampleFS.ReadFile("sample/bonds.json")
	if err != nil {
		return nil, fmt.Errorf("SampleBonds: %w", err)
	}
	var recs []BondRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("SampleBonds: %w", err)
	}
	return recs, nil
}

// SampleFixings returns the bundled index fixings feed.
func SampleFixings() (FixingFeed, error) {
	raw, err := sampleFS.ReadFile("sample/fixings.json")
	if err != nil {
		return nil, fmt.Errorf("SampleFixings: %w", err)
	}
	var percents map[string]decimal.Decimal
	if err := json.Unmarshal(raw, &percents); err != nil {
		return nil, fmt.Errorf("SampleFixings: %w", err)
	}
	rates := make(map[string]float64, len(percents))
	for d, p := range percents {
		rates[d] = p.Div(oneHundred).InexactFloat64()
	}
	return NewStaticFixings(rates), nil
}
