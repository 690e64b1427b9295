// Package hullwhite calibrates a one-factor Hull-White short-rate model to a
// zero curve and Monte-Carlo-prices callable bond cashflows to back out
// option-adjusted spreads.
//
// The short rate follows dr = a(theta(t) - r)dt + sigma dW with theta fitted
// so the model reprices the input curve exactly. Transitions of the pair
// (r, integral of r) are sampled from their exact joint distribution, so the
// simulation grid only needs nodes at cashflow and call dates.
package hullwhite

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/mhaugen/bondlib/curve"
)

// ErrNoCalibrationData is returned when calibration is requested without any
// volatility quotes. Callers fall back to a lower-fidelity model.
var ErrNoCalibrationData = errors.New("no calibration data")

// Config holds the model and simulation parameters.
type Config struct {
	// Paths is the Monte Carlo path count. More paths shrink the standard
	// error by 1/sqrt(n); fewer trip the low-confidence tag sooner.
	Paths int
	Seed  uint64

	// MeanReversion is the speed a. Must be positive.
	MeanReversion float64
	// Sigma is the absolute short-rate volatility. Non-positive means it
	// must come from Calibrate.
	Sigma float64

	// MaxStandardErrorBP is the OAS standard error above which results are
	// tagged low-confidence rather than suppressed.
	MaxStandardErrorBP float64
}

// DefaultConfig matches the production batch settings.
var DefaultConfig = Config{
	Paths:              10_000,
	Seed:               1,
	MeanReversion:      0.03,
	MaxStandardErrorBP: 1.0,
}

func (c Config) withDefaults() Config {
	if c.Paths <= 0 {
		c.Paths = DefaultConfig.Paths
	}
	if c.Seed == 0 {
		c.Seed = DefaultConfig.Seed
	}
	if c.MeanReversion <= 0 {
		c.MeanReversion = DefaultConfig.MeanReversion
	}
	if c.MaxStandardErrorBP <= 0 {
		c.MaxStandardErrorBP = DefaultConfig.MaxStandardErrorBP
	}
	return c
}

// SwaptionVol is one at-the-money normal volatility quote used for
// calibration: the option expires in ExpiryYears on a swap running
// TenorYears, quoted in basis points per annum.
type SwaptionVol struct {
	ExpiryYears float64
	TenorYears  float64
	NormalVolBP float64
}

// Model is a Hull-White model bound to a discount curve. Immutable after
// construction.
type Model struct {
	cfg   Config
	crv   *curve.Zero
	a     float64
	sigma float64
}

// New builds a model with an explicitly supplied volatility.
func New(crv *curve.Zero, cfg Config) (*Model, error) {
	if crv == nil {
		return nil, fmt.Errorf("New: nil curve")
	}
	cfg = cfg.withDefaults()
	if cfg.Sigma <= 0 {
		return nil, fmt.Errorf("New: sigma %g must be positive, or use Calibrate", cfg.Sigma)
	}
	return &Model{cfg: cfg, crv: crv, a: cfg.MeanReversion, sigma: cfg.Sigma}, nil
}

// Calibrate fits sigma to at-the-money swaption normal vols, holding the
// mean reversion fixed. The fit minimizes the sum of squared vol errors with
// Nelder-Mead over log-sigma, keeping the volatility positive.
func Calibrate(crv *curve.Zero, quotes []SwaptionVol, cfg Config) (*Model, error) {
	if crv == nil {
		return nil, fmt.Errorf("Calibrate: nil curve")
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("Calibrate: %w", ErrNoCalibrationData)
	}
	cfg = cfg.withDefaults()
	a := cfg.MeanReversion

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sigma := math.Exp(x[0])
			var loss float64
			for _, q := range quotes {
				got := modelNormalVol(a, sigma, q.ExpiryYears, q.TenorYears)
				diff := got - q.NormalVolBP*1e-4
				loss += diff * diff
			}
			return loss / float64(len(quotes))
		},
	}
	res, err := optimize.Minimize(problem, []float64{math.Log(0.01)}, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("Calibrate: %w", err)
	}
	cfg.Sigma = math.Exp(res.X[0])
	return &Model{cfg: cfg, crv: crv, a: a, sigma: cfg.Sigma}, nil
}

// Sigma returns the model volatility, explicit or calibrated.
func (m *Model) Sigma() float64 { return m.sigma }

// MeanReversion returns the mean reversion speed.
func (m *Model) MeanReversion() float64 { return m.a }

// modelNormalVol approximates the at-the-money swaption normal vol implied
// by (a, sigma): the short-rate vol damped by the tenor-average of B and the
// annualized variance decay to expiry.
func modelNormalVol(a, sigma, expiry, tenor float64) float64 {
	if expiry <= 0 || tenor <= 0 {
		return 0
	}
	bAvg := bFactor(a, tenor) / tenor
	decay := (1 - math.Exp(-2*a*expiry)) / (2 * a * expiry)
	return sigma * bAvg * math.Sqrt(decay)
}

// bFactor is B(0, t) = (1 - e^{-at}) / a.
func bFactor(a, t float64) float64 {
	return (1 - math.Exp(-a*t)) / a
}

// df is the curve discount factor on the model's continuous clock.
func (m *Model) df(t float64) float64 {
	return m.crv.DF(t, curve.Continuous)
}

// forward is the instantaneous forward f(0,t), a central difference of the
// log discount curve clamped at zero.
func (m *Model) forward(t float64) float64 {
	const h = 1e-4
	lo := t - h
	if lo < 0 {
		lo = 0
	}
	hi := t + h
	return -(math.Log(m.df(hi)) - math.Log(m.df(lo))) / (hi - lo)
}

// alpha is the fitted drift level: alpha(t) = f(0,t) + sigma^2/(2a^2) (1-e^{-at})^2.
func (m *Model) alpha(t float64) float64 {
	e := 1 - math.Exp(-m.a*t)
	return m.forward(t) + m.sigma*m.sigma/(2*m.a*m.a)*e*e
}

// bondPrice is the analytic zero-coupon price P(t,T) given the short rate r
// at t, consistent with the input curve at t = 0.
func (m *Model) bondPrice(t, T, r float64) float64 {
	if T <= t {
		return 1
	}
	b := bFactor(m.a, T-t)
	lnA := math.Log(m.df(T)/m.df(t)) +
		b*m.forward(t) -
		m.sigma*m.sigma/(4*m.a)*(1-math.Exp(-2*m.a*t))*b*b
	return math.Exp(lnA - b*r)
}
