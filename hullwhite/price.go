package hullwhite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/solver"
)

// PriceStats is a Monte Carlo price estimate with its standard error, both
// per 100 face.
type PriceStats struct {
	PV            float64
	StandardError float64
}

// EventTimes collects the simulation nodes a schedule needs: every cashflow
// time plus every call's time on the schedule's clock.
func EventTimes(s *bond.Schedule, calls []bond.CallEntry) []float64 {
	times := make([]float64, 0, len(s.Flows)+len(calls))
	for _, cf := range s.Flows {
		times = append(times, cf.Time)
	}
	for _, c := range calls {
		times = append(times, s.TimeOf(c.Date))
	}
	return times
}

// planFlow is one cashflow aligned to its PathSet node.
type planFlow struct {
	node   int
	time   float64
	amount float64
}

// planCall is one exercise opportunity. Continuation values at the call are
// analytic in the path's short rate; coefA and coefB hold the zero-coupon
// decomposition of the remaining flows as seen from the call time.
type planCall struct {
	node     int
	time     float64
	proceeds float64 // call price on outstanding notional plus accrued coupon
	cut      int     // flows[:cut] pay regardless of exercise
	coefA    []float64
	coefB    []float64
	tails    []float64 // time from call to each remaining flow
}

// pricer binds simulated paths to a bond's cashflows and call features so
// repeated spread evaluations reuse the same randomness.
type pricer struct {
	ps    *PathSet
	comp  curve.Compounding
	flows []planFlow
	calls []planCall
}

func (m *Model) newPricer(ps *PathSet, s *bond.Schedule, calls []bond.CallEntry, comp curve.Compounding) (*pricer, error) {
	if ps == nil || s == nil || len(s.Flows) == 0 {
		return nil, fmt.Errorf("newPricer: empty schedule or paths")
	}
	pc := &pricer{ps: ps, comp: comp}

	pc.flows = make([]planFlow, len(s.Flows))
	for i, cf := range s.Flows {
		node, err := findNode(ps.Times, cf.Time)
		if err != nil {
			return nil, fmt.Errorf("newPricer: cashflow %s: %w", cf.Date.Format("2006-01-02"), err)
		}
		pc.flows[i] = planFlow{node: node, time: cf.Time, amount: cf.Amount}
	}

	sorted := append([]bond.CallEntry(nil), calls...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for _, c := range sorted {
		tau := s.TimeOf(c.Date)
		node, err := findNode(ps.Times, tau)
		if err != nil {
			return nil, fmt.Errorf("newPricer: call %s: %w", c.Date.Format("2006-01-02"), err)
		}

		// TruncateAtCall already knows how to prorate the running coupon
		// and size the redemption on the live notional; the flows it dates
		// on the call date are exactly the exercise proceeds.
		trunc, err := bond.TruncateAtCall(s, c)
		if err != nil {
			return nil, fmt.Errorf("newPricer: call %s: %w", c.Date.Format("2006-01-02"), err)
		}
		proceeds := 0.0
		for _, cf := range trunc.Flows {
			if cf.Date.Equal(c.Date) {
				proceeds += cf.Amount
			}
		}
		// A coupon landing exactly on the call date pays whether or not the
		// bond is called, so it belongs to the unconditional flows, not the
		// exercise proceeds.
		for _, cf := range s.Flows {
			if cf.Date.Equal(c.Date) {
				proceeds -= cf.Amount
			}
		}

		pcall := planCall{node: node, time: tau, proceeds: proceeds}
		for pcall.cut < len(pc.flows) && pc.flows[pcall.cut].time <= tau {
			pcall.cut++
		}
		for _, f := range pc.flows[pcall.cut:] {
			pcall.coefA = append(pcall.coefA, f.amount*m.bondPrice(tau, f.time, 0))
			pcall.coefB = append(pcall.coefB, bFactor(m.a, f.time-tau))
			pcall.tails = append(pcall.tails, f.time-tau)
		}
		pc.calls = append(pc.calls, pcall)
	}
	return pc, nil
}

// values returns the per-path present value of the callable bond with the
// given flat spread layered over the simulated discounting. The issuer calls
// at the first opportunity where the continuation value exceeds the call
// proceeds, both measured at the call date.
func (pc *pricer) values(spread float64) []float64 {
	sf := make([]float64, len(pc.flows))
	for i, f := range pc.flows {
		sf[i] = curve.Discount(spread, f.time, pc.comp)
	}
	type callCtx struct {
		sf   float64   // spread factor at the call time
		cont []float64 // coefA scaled by the spread factor over each tail
	}
	ctxs := make([]callCtx, len(pc.calls))
	for j, c := range pc.calls {
		cc := callCtx{sf: curve.Discount(spread, c.time, pc.comp)}
		cc.cont = make([]float64, len(c.coefA))
		for k := range c.coefA {
			cc.cont[k] = c.coefA[k] * curve.Discount(spread, c.tails[k], pc.comp)
		}
		ctxs[j] = cc
	}

	out := make([]float64, len(pc.ps.Discount))
	for p, dfs := range pc.ps.Discount {
		exercisedAt := -1
		for j, c := range pc.calls {
			r := pc.ps.ShortRate[p][c.node]
			cont := 0.0
			for k := range c.coefB {
				cont += ctxs[j].cont[k] * math.Exp(-c.coefB[k]*r)
			}
			if cont > c.proceeds {
				exercisedAt = j
				break
			}
		}
		v := 0.0
		if exercisedAt >= 0 {
			c := pc.calls[exercisedAt]
			for i := 0; i < c.cut; i++ {
				f := pc.flows[i]
				v += f.amount * dfs[f.node] * sf[i]
			}
			v += c.proceeds * dfs[c.node] * ctxs[exercisedAt].sf
		} else {
			for i, f := range pc.flows {
				v += f.amount * dfs[f.node] * sf[i]
			}
		}
		out[p] = v
	}
	return out
}

func (pc *pricer) pv(spread float64) float64 {
	return stat.Mean(pc.values(spread), nil)
}

// PriceWithOption values the schedule with its call features along the
// simulated paths at a flat spread (a decimal, applied on comp's basis).
func (m *Model) PriceWithOption(ps *PathSet, s *bond.Schedule, calls []bond.CallEntry, spread float64, comp curve.Compounding) (PriceStats, error) {
	pc, err := m.newPricer(ps, s, calls, comp)
	if err != nil {
		return PriceStats{}, fmt.Errorf("PriceWithOption: %w", err)
	}
	vals := pc.values(spread)
	mean, std := stat.MeanStdDev(vals, nil)
	return PriceStats{PV: mean, StandardError: std / math.Sqrt(float64(len(vals)))}, nil
}

// SolveOAS finds the flat spread at which the simulated callable price
// matches the observed dirty price, reusing one PathSet across all spread
// trials so the objective is smooth in the spread. hint centers the initial
// bracket, typically at the Z-spread. The returned standard error is the
// price noise at the solution mapped through the local spread sensitivity,
// in basis points.
func (m *Model) SolveOAS(ps *PathSet, s *bond.Schedule, calls []bond.CallEntry, dirty float64, hint float64, comp curve.Compounding) (oas, seBP float64, err error) {
	if dirty <= 0 {
		return 0, 0, fmt.Errorf("SolveOAS: dirty price %g must be positive", dirty)
	}
	pc, err := m.newPricer(ps, s, calls, comp)
	if err != nil {
		return 0, 0, fmt.Errorf("SolveOAS: %w", err)
	}
	oas, err = solver.Solve(pc.pv, dirty, solver.Bracket{Lo: hint - 0.03, Hi: hint + 0.03}, solver.Config{})
	if err != nil {
		return 0, 0, fmt.Errorf("SolveOAS: %w", err)
	}

	vals := pc.values(oas)
	_, std := stat.MeanStdDev(vals, nil)
	sePrice := std / math.Sqrt(float64(len(vals)))

	const db = 1e-4
	slope := (pc.pv(oas+db) - pc.pv(oas-db)) / (2 * db)
	if slope != 0 {
		seBP = math.Abs(sePrice/slope) * 1e4
	}
	return oas, seBP, nil
}

// Strategy prices embedded calls with the Hull-White Monte Carlo engine. It
// implements bond.PricingStrategy. When Config.Sigma is unset it calibrates
// from Quotes; with no quotes either it degrades to the Fallback strategy
// (Black-76 unless overridden) and tags the result accordingly.
type Strategy struct {
	Config   Config
	Quotes   []SwaptionVol
	Fallback bond.PricingStrategy
}

func (st *Strategy) Name() string { return "hull-white-mc" }

func (st *Strategy) SolveOAS(ctx context.Context, in bond.StrategyInput) (bond.StrategyResult, error) {
	cfg := st.Config.withDefaults()

	var (
		m   *Model
		err error
	)
	if cfg.Sigma > 0 {
		m, err = New(in.Discount, cfg)
	} else {
		m, err = Calibrate(in.Discount, st.Quotes, cfg)
		if errors.Is(err, ErrNoCalibrationData) {
			fb := st.Fallback
			if fb == nil {
				fb = &BlackStrategy{}
			}
			res, fbErr := fb.SolveOAS(ctx, in)
			if fbErr != nil {
				return bond.StrategyResult{}, fmt.Errorf("SolveOAS: fallback: %w", fbErr)
			}
			res.Quality = bond.QualityFallback
			return res, nil
		}
	}
	if err != nil {
		return bond.StrategyResult{}, fmt.Errorf("SolveOAS: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return bond.StrategyResult{}, err
	}

	ps, err := m.Simulate(EventTimes(in.Schedule, in.Calls), cfg.Paths, cfg.Seed)
	if err != nil {
		return bond.StrategyResult{}, fmt.Errorf("SolveOAS: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return bond.StrategyResult{}, err
	}

	oas, seBP, err := m.SolveOAS(ps, in.Schedule, in.Calls, in.DirtyPrice, in.ZSpreadBP*1e-4, in.Compounding)
	if err != nil {
		return bond.StrategyResult{}, err
	}

	quality := bond.QualityOK
	if seBP > cfg.MaxStandardErrorBP {
		quality = bond.QualityLowConfidence
	}
	return bond.StrategyResult{
		OASBP:           oas * 1e4,
		StandardErrorBP: seBP,
		Quality:         quality,
		Method:          st.Name(),
	}, nil
}

func findNode(times []float64, t float64) (int, error) {
	i := sort.SearchFloat64s(times, t-1e-9)
	if i < len(times) && math.Abs(times[i]-t) <= 1e-9 {
		return i, nil
	}
	return 0, fmt.Errorf("time %g not on the simulation grid", t)
}
