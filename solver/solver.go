// Package solver provides the one-dimensional root finder behind every
// "find x such that price(x) = target" analytic.
package solver

import (
	"fmt"
	"math"
)

// Bracket is the initial search interval for a root.
type Bracket struct {
	Lo float64
	Hi float64
}

// Config bounds the root search. Zero-valued fields fall back to
// DefaultConfig.
type Config struct {
	// Tolerance is the absolute error target on the solved variable.
	Tolerance float64

	// MaxIterations caps the Brent iteration count.
	MaxIterations int

	// MaxExpansions caps how many times the bracket is widened about its
	// center when the initial interval has no sign change. Each widening
	// multiplies the half-width by ExpansionFactor.
	MaxExpansions int

	// ExpansionFactor is the geometric widening factor per expansion.
	ExpansionFactor float64
}

// DefaultConfig provides production default bounds.
var DefaultConfig = Config{
	Tolerance:       1e-8,
	MaxIterations:   200,
	MaxExpansions:   5,
	ExpansionFactor: 1.6,
}

// ConvergenceError reports an exhausted bracket or iteration budget.
// The solver never returns a best-guess value in its place.
type ConvergenceError struct {
	Lo         float64
	Hi         float64
	Iterations int
	Reason     string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("Solve: %s in [%.6g, %.6g] after %d iterations", e.Reason, e.Lo, e.Hi, e.Iterations)
}

func (c Config) withDefaults() Config {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultConfig.Tolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultConfig.MaxIterations
	}
	if c.MaxExpansions <= 0 {
		c.MaxExpansions = DefaultConfig.MaxExpansions
	}
	if c.ExpansionFactor <= 1 {
		c.ExpansionFactor = DefaultConfig.ExpansionFactor
	}
	return c
}

// Solve finds x in (an expansion of) the bracket such that f(x) == target.
//
// Brent's method is the primary algorithm. When the initial bracket does not
// contain a sign change, it is widened geometrically about its center up to
// Config.MaxExpansions times before failing with ConvergenceError. A short
// Newton polish with a numeric derivative runs after Brent converges; its
// result is kept only when it agrees with Brent within tolerance.
func Solve(f func(float64) float64, target float64, b Bracket, cfg Config) (float64, error) {
	cfg = cfg.withDefaults()

	g := func(x float64) float64 { return f(x) - target }

	lo, hi := b.Lo, b.Hi
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return 0, &ConvergenceError{Lo: lo, Hi: hi, Reason: "degenerate bracket"}
	}

	gLo := g(lo)
	gHi := g(hi)

	// Pull a non-finite endpoint inward so the bracket always carries two
	// comparable values. The yield objective, for example, is undefined at
	// rates at or below -100%.
	for i := 0; i < 8 && !isFinite(gLo) && isFinite(gHi); i++ {
		lo = (lo + hi) / 2
		gLo = g(lo)
	}
	for i := 0; i < 8 && !isFinite(gHi) && isFinite(gLo); i++ {
		hi = (lo + hi) / 2
		gHi = g(hi)
	}
	if !isFinite(gLo) || !isFinite(gHi) {
		return 0, &ConvergenceError{Lo: lo, Hi: hi, Reason: "objective not finite at bracket"}
	}
	if gLo == 0 {
		return lo, nil
	}
	if gHi == 0 {
		return hi, nil
	}

	lo, hi, gLo, gHi, err := expandBracket(g, lo, hi, gLo, gHi, cfg)
	if err != nil {
		return 0, err
	}

	root, err := brent(g, lo, hi, gLo, gHi, cfg)
	if err != nil {
		return 0, err
	}

	if refined, ok := newtonPolish(g, root, lo, hi, cfg.Tolerance); ok {
		if math.Abs(refined-root) <= cfg.Tolerance && math.Abs(g(refined)) <= math.Abs(g(root)) {
			return refined, nil
		}
	}
	return root, nil
}

// expandBracket widens [lo, hi] about its center until g changes sign.
// An endpoint where g stops being finite is pinned at its last good value.
func expandBracket(g func(float64) float64, lo, hi, gLo, gHi float64, cfg Config) (float64, float64, float64, float64, error) {
	if gLo*gHi < 0 {
		return lo, hi, gLo, gHi, nil
	}

	mid := (lo + hi) / 2
	half := (hi - lo) / 2

	for k := 1; k <= cfg.MaxExpansions; k++ {
		grow := half * math.Pow(cfg.ExpansionFactor, float64(k))

		// A candidate endpoint where g is not finite stays pinned at its
		// previous value rather than poisoning the bracket.
		if v := g(mid - grow); isFinite(v) {
			lo, gLo = mid-grow, v
		}
		if v := g(mid + grow); isFinite(v) {
			hi, gHi = mid+grow, v
		}

		if gLo*gHi < 0 {
			return lo, hi, gLo, gHi, nil
		}
	}

	return 0, 0, 0, 0, &ConvergenceError{
		Lo:         lo,
		Hi:         hi,
		Iterations: cfg.MaxExpansions,
		Reason:     "no sign change after bracket expansion",
	}
}

// brent is the classic Brent-Dekker iteration on a sign-changing bracket.
func brent(g func(float64) float64, a, b, fa, fb float64, cfg Config) (float64, error) {
	c, fc := a, fa
	d := b - a
	e := d

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if fb*fc > 0 {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machineEps*math.Abs(b) + 0.5*cfg.Tolerance
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, secant when a == c.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = g(b)
		if !isFinite(fb) {
			return 0, &ConvergenceError{Lo: a, Hi: c, Iterations: iter, Reason: "objective not finite during iteration"}
		}
	}

	return 0, &ConvergenceError{Lo: a, Hi: c, Iterations: cfg.MaxIterations, Reason: "did not converge"}
}

// newtonPolish runs a few damped Newton steps with a central-difference
// derivative. It reports false whenever the iteration leaves the bracket or
// the derivative degenerates, leaving Brent's root as the answer.
func newtonPolish(g func(float64) float64, x0, lo, hi, tol float64) (float64, bool) {
	x := x0
	for i := 0; i < 4; i++ {
		gx := g(x)
		if gx == 0 {
			return x, true
		}
		h := 1e-6 * math.Max(1.0, math.Abs(x))
		deriv := (g(x+h) - g(x-h)) / (2 * h)
		if deriv == 0 || !isFinite(deriv) {
			return x0, false
		}
		next := x - gx/deriv
		if !isFinite(next) || next < lo || next > hi {
			return x0, false
		}
		if math.Abs(next-x) <= tol {
			return next, true
		}
		x = next
	}
	return x, true
}

const machineEps = 2.220446049250313e-16

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
