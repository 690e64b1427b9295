// Package curve represents a zero-rate term structure for one currency and
// as-of date, with shape-preserving interpolation and flat extrapolation.
package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrEmptyCurve is returned when a curve is constructed with zero points.
	ErrEmptyCurve = errors.New("empty curve")
)

// Point is a single curve pillar: term in years against the annualized zero
// rate as a decimal (0.04 == 4%). The compounding basis is chosen at
// discount time, continuous unless a caller asks otherwise.
type Point struct {
	Term float64 `json:"term"`
	Rate float64 `json:"rate"`
}

// Zero is an immutable zero curve. Derived curves (Shifted, BumpedAt) share
// nothing with their parent; construction is the only mutation point.
type Zero struct {
	currency string
	asof     time.Time
	terms    []float64
	rates    []float64
	tangents []float64
	shift    float64
}

// NewZero builds a curve from pillar points. Points are sorted by term;
// terms must be non-negative and strictly increasing after sorting. A single
// point degenerates to a flat curve.
func NewZero(currency string, asof time.Time, points []Point) (*Zero, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("NewZero: %w", ErrEmptyCurve)
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Term < sorted[j].Term })

	z := &Zero{
		currency: currency,
		asof:     asof,
		terms:    make([]float64, len(sorted)),
		rates:    make([]float64, len(sorted)),
	}
	for i, p := range sorted {
		if p.Term < 0 {
			return nil, fmt.Errorf("NewZero: term %g must be non-negative", p.Term)
		}
		if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
			return nil, fmt.Errorf("NewZero: rate at term %g is not finite", p.Term)
		}
		if i > 0 && p.Term <= sorted[i-1].Term {
			return nil, fmt.Errorf("NewZero: terms must be strictly increasing (term %g repeated)", p.Term)
		}
		z.terms[i] = p.Term
		z.rates[i] = p.Rate
	}

	if len(z.terms) >= 2 {
		z.tangents = monotoneTangents(z.terms, z.rates)
	}
	return z, nil
}

// Currency returns the curve's currency code.
func (z *Zero) Currency() string { return z.currency }

// AsOf returns the curve's as-of date.
func (z *Zero) AsOf() time.Time { return z.asof }

// Shift returns the parallel shift applied on top of the pillar rates.
func (z *Zero) Shift() float64 { return z.shift }

// Points returns a copy of the pillar points (without any parallel shift).
func (z *Zero) Points() []Point {
	pts := make([]Point, len(z.terms))
	for i := range z.terms {
		pts[i] = Point{Term: z.terms[i], Rate: z.rates[i]}
	}
	return pts
}

// Terms returns a copy of the pillar terms in years.
func (z *Zero) Terms() []float64 {
	out := make([]float64, len(z.terms))
	copy(out, z.terms)
	return out
}

// MaxTerm returns the last pillar term.
func (z *Zero) MaxTerm() float64 {
	return z.terms[len(z.terms)-1]
}

// Rate returns the interpolated zero rate at term t. Beyond the pillar range
// the nearest pillar rate is held flat.
func (z *Zero) Rate(t float64) float64 {
	return z.baseRate(t) + z.shift
}

func (z *Zero) baseRate(t float64) float64 {
	n := len(z.terms)
	if n == 1 || t <= z.terms[0] {
		return z.rates[0]
	}
	if t >= z.terms[n-1] {
		return z.rates[n-1]
	}

	// First pillar index with terms[i] >= t.
	i := sort.SearchFloat64s(z.terms, t)
	if z.terms[i] == t {
		return z.rates[i]
	}
	return hermite(t, z.terms[i-1], z.terms[i], z.rates[i-1], z.rates[i], z.tangents[i-1], z.tangents[i])
}

// DF returns the discount factor for a cashflow t years out under the given
// compounding basis.
func (z *Zero) DF(t float64, comp Compounding) float64 {
	return Discount(z.Rate(t), t, comp)
}

// ForwardRate returns the simple forward rate between t1 and t2 implied by
// continuously-compounded discount factors.
func (z *Zero) ForwardRate(t1, t2 float64) float64 {
	if t2 <= t1 {
		return 0
	}
	df1 := z.DF(t1, Continuous)
	df2 := z.DF(t2, Continuous)
	return (df1/df2 - 1.0) / (t2 - t1)
}

// Shifted returns a derived curve with spread added uniformly to every rate.
func (z *Zero) Shifted(spread float64) *Zero {
	out := *z
	out.shift += spread
	return &out
}

// BumpedAt returns a derived curve with delta added to the pillar at index i
// only, tangents recomputed. Used for key-rate bumps.
func (z *Zero) BumpedAt(i int, delta float64) (*Zero, error) {
	if i < 0 || i >= len(z.terms) {
		return nil, fmt.Errorf("BumpedAt: pillar index %d out of range [0, %d)", i, len(z.terms))
	}
	pts := z.Points()
	pts[i].Rate += delta
	bumped, err := NewZero(z.currency, z.asof, pts)
	if err != nil {
		return nil, err
	}
	bumped.shift = z.shift
	return bumped, nil
}
