package marketdata

import "time"

// FixingFeed supplies index fixings for floating-rate bonds. Rates are
// engine decimals (0.0546 = 5.46%), keyed by the date the rate was set.
type FixingFeed interface {
	RateOn(date time.Time) (float64, bool)
}

// StaticFixings is a map-backed FixingFeed for bundled or test data.
type StaticFixings struct {
	rates map[string]float64
}

// NewStaticFixings copies the given rates, keyed by YYYY-MM-DD.
func NewStaticFixings(rates map[string]float64) *StaticFixings {
	cp := make(map[string]float64, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return &StaticFixings{rates: cp}
}

func (f *StaticFixings) RateOn(date time.Time) (float64, bool) {
	v, ok := f.rates[date.Format(time.DateOnly)]
	return v, ok
}
