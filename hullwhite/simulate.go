package hullwhite

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// PathSet holds simulated states at a fixed set of times, one row per path.
// Discount[p][k] is the pathwise money-market discount factor
// exp(-integral of r from 0 to Times[k]); ShortRate[p][k] is r at Times[k].
type PathSet struct {
	Times     []float64
	ShortRate [][]float64
	Discount  [][]float64
}

// transition caches the exact conditional moments of (r, integral of r) over
// one step, which depend only on the step endpoints.
type transition struct {
	decay   float64 // e^{-a dt}
	b       float64 // B(dt)
	intAl   float64 // integral of alpha over the step
	alpha0  float64 // alpha at the step start
	alpha1  float64 // alpha at the step end
	stdR    float64
	stdCond float64 // conditional std of the integral given the rate draw
	beta    float64 // cov / var of the rate draw
}

// Simulate draws paths of the short rate and its running integral at the
// given times. Times must be positive; they are sorted and deduplicated, and
// the returned PathSet reports them in that order. The transition between
// consecutive nodes is sampled exactly, so wide steps lose no accuracy.
func (m *Model) Simulate(times []float64, paths int, seed uint64) (*PathSet, error) {
	if paths <= 0 {
		return nil, fmt.Errorf("Simulate: paths %d must be positive", paths)
	}
	grid := make([]float64, 0, len(times))
	for _, t := range times {
		if t < 0 {
			return nil, fmt.Errorf("Simulate: negative time %g", t)
		}
		if t > 0 {
			grid = append(grid, t)
		}
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("Simulate: no positive times")
	}
	sort.Float64s(grid)
	grid = dedupe(grid)

	steps := make([]transition, len(grid))
	prev := 0.0
	for i, t := range grid {
		steps[i] = m.step(prev, t)
		prev = t
	}

	r0 := m.alpha(0)
	rng := rand.New(rand.NewSource(seed))

	ps := &PathSet{
		Times:     grid,
		ShortRate: make([][]float64, paths),
		Discount:  make([][]float64, paths),
	}
	for p := 0; p < paths; p++ {
		rates := make([]float64, len(grid))
		dfs := make([]float64, len(grid))
		r := r0
		acc := 0.0
		for i, tr := range steps {
			zr := rng.NormFloat64()
			zi := rng.NormFloat64()
			epsR := tr.stdR * zr
			next := tr.decay*r + tr.alpha1 - tr.decay*tr.alpha0 + epsR
			integ := tr.b*(r-tr.alpha0) + tr.intAl + tr.beta*epsR + tr.stdCond*zi
			acc += integ
			r = next
			rates[i] = r
			dfs[i] = math.Exp(-acc)
		}
		ps.ShortRate[p] = rates
		ps.Discount[p] = dfs
	}
	return ps, nil
}

// step computes the exact conditional moments over [t0, t1].
func (m *Model) step(t0, t1 float64) transition {
	a, sigma := m.a, m.sigma
	dt := t1 - t0
	e1 := math.Exp(-a * dt)
	b := (1 - e1) / a
	b2 := (1 - e1*e1) / (2 * a)

	varR := sigma * sigma * b2
	varI := sigma * sigma / (a * a) * (dt - 2*b + b2)
	cov := sigma * sigma / (2 * a * a) * (1 - e1) * (1 - e1)

	beta := 0.0
	condVar := varI
	if varR > 0 {
		beta = cov / varR
		condVar = varI - cov*cov/varR
	}
	if condVar < 0 {
		condVar = 0
	}

	// Integral of alpha: the forward part telescopes to log discount
	// factors, the convexity part integrates in closed form.
	ea0 := math.Exp(-a * t0)
	ea1 := math.Exp(-a * t1)
	convexity := sigma * sigma / (2 * a * a) *
		(dt + 2/a*(ea1-ea0) - 1/(2*a)*(ea1*ea1-ea0*ea0))
	intAl := math.Log(m.df(t0)/m.df(t1)) + convexity

	return transition{
		decay:   e1,
		b:       b,
		intAl:   intAl,
		alpha0:  m.alpha(t0),
		alpha1:  m.alpha(t1),
		stdR:    math.Sqrt(varR),
		stdCond: math.Sqrt(condVar),
		beta:    beta,
	}
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:1]
	for _, t := range sorted[1:] {
		if t-out[len(out)-1] > 1e-12 {
			out = append(out, t)
		}
	}
	return out
}
