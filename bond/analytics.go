package bond

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/solver"
)

// Quality flags the confidence of a model-based result.
type Quality string

const (
	QualityOK Quality = "ok"
	// QualityLowConfidence marks a Monte Carlo result whose standard error
	// exceeded the configured tolerance. The value is returned, tagged.
	QualityLowConfidence Quality = "low-confidence"
	// QualityFallback marks a result from a lower-fidelity closed-form
	// model, used when calibration data was unavailable.
	QualityFallback Quality = "fallback"
)

// StrategyInput is everything an option-pricing strategy needs to back out
// an option-adjusted spread.
type StrategyInput struct {
	Schedule    *Schedule
	Calls       []CallEntry // exercisable calls, strictly between valuation and maturity
	Discount    *curve.Zero
	DirtyPrice  float64
	ZSpreadBP   float64
	Compounding curve.Compounding
}

// StrategyResult is a solved OAS with its confidence tagging.
type StrategyResult struct {
	OASBP           float64
	StandardErrorBP float64
	Quality         Quality
	Method          string
}

// PricingStrategy prices embedded optionality. Implementations are chosen
// explicitly by the caller at construction time from available calibration
// data; the engine never probes capabilities at runtime.
type PricingStrategy interface {
	Name() string
	SolveOAS(ctx context.Context, in StrategyInput) (StrategyResult, error)
}

// Input is one security at one valuation date.
type Input struct {
	Terms     Terms
	Valuation time.Time

	// Projection prices floating coupons and serves as the discount curve
	// when Discount is nil.
	Projection *curve.Zero
	Discount   *curve.Zero

	// One of DirtyPrice or CleanPrice must be positive. A clean price is
	// combined with AccruedInterest, or with the schedule-derived accrued
	// when none is supplied.
	CleanPrice      float64
	DirtyPrice      float64
	AccruedInterest *float64

	// Compounding for yield and curve discounting. The zero value is the
	// continuous alias; Terms.DefaultCompounding matches the coupon
	// frequency.
	Compounding curve.Compounding

	Bracket solver.Bracket // zero value: DefaultYieldBracket
	Solver  solver.Config  // zero fields: solver defaults
	Risk    RiskConfig

	// Strategy prices embedded optionality. Nil leaves OAS absent.
	Strategy PricingStrategy
}

// OASResult is the option-adjusted spread block, in basis points.
type OASResult struct {
	OAS           Measure `json:"oas"`
	StandardError Measure `json:"standard_error"`
	Quality       Quality `json:"quality"`
	Method        string  `json:"method"`
}

// CallResult re-states the core analytics against a call-truncated horizon.
// A CallDate equal to maturity means redemption at maturity was the worst
// outcome.
type CallResult struct {
	CallDate  time.Time `json:"call_date"`
	CallPrice float64   `json:"call_price"`

	YTM     Measure `json:"ytm"`
	ZSpread Measure `json:"z_spread"`
	GSpread Measure `json:"g_spread"`

	ModifiedDuration  Measure `json:"modified_duration"`
	EffectiveDuration Measure `json:"effective_duration"`
	Convexity         Measure `json:"convexity"`
	DV01              Measure `json:"dv01"`
}

// Result is the full analytics bundle for one security. Metrics that do not
// apply to the instrument are absent measures, never zeros.
type Result struct {
	ID        string         `json:"id"`
	Kind      InstrumentKind `json:"kind"`
	Valuation time.Time      `json:"valuation"`

	CleanPrice      Measure `json:"clean_price"`
	DirtyPrice      Measure `json:"dirty_price"`
	AccruedInterest Measure `json:"accrued_interest"`

	YTM            Measure `json:"ytm"`
	ZSpread        Measure `json:"z_spread"`
	GSpread        Measure `json:"g_spread"`
	DiscountMargin Measure `json:"discount_margin"`

	MacaulayDuration  Measure `json:"macaulay_duration"`
	ModifiedDuration  Measure `json:"modified_duration"`
	EffectiveDuration Measure `json:"effective_duration"`
	Convexity         Measure `json:"convexity"`
	DV01              Measure `json:"dv01"`

	KeyRateDurations []KeyRateDuration `json:"key_rate_durations,omitempty"`

	NextCall  *CallResult `json:"next_call,omitempty"`
	WorstCall *CallResult `json:"worst_call,omitempty"`
	OAS       *OASResult  `json:"oas,omitempty"`
}

func emptyResult(in Input) Result {
	return Result{
		ID:        in.Terms.ID,
		Valuation: in.Valuation,

		CleanPrice:      NoMeasure(UnitPer100),
		DirtyPrice:      NoMeasure(UnitPer100),
		AccruedInterest: NoMeasure(UnitPer100),

		YTM:            NoMeasure(UnitPercent),
		ZSpread:        NoMeasure(UnitBasisPoints),
		GSpread:        NoMeasure(UnitBasisPoints),
		DiscountMargin: NoMeasure(UnitBasisPoints),

		MacaulayDuration:  NoMeasure(UnitYears),
		ModifiedDuration:  NoMeasure(UnitYears),
		EffectiveDuration: NoMeasure(UnitYears),
		Convexity:         NoMeasure(UnitUnitless),
		DV01:              NoMeasure(UnitPer100),
	}
}

// Analyze produces the full analytics bundle for one security.
//
// On error the returned Result still carries everything computed before the
// failure, so batch callers can persist partial rows alongside the error.
func Analyze(ctx context.Context, in Input) (Result, error) {
	res := emptyResult(in)

	if in.Projection == nil {
		return res, &InvalidInputError{Field: "Projection", Reason: "curve required"}
	}
	if in.Valuation.IsZero() {
		return res, &InvalidInputError{Field: "Valuation", Reason: "date required"}
	}
	if in.DirtyPrice <= 0 && in.CleanPrice <= 0 {
		return res, &InvalidInputError{Field: "DirtyPrice", Reason: "dirty or clean price required"}
	}
	disc := in.Discount
	if disc == nil {
		disc = in.Projection
	}

	base, err := BuildSchedule(in.Terms, in.Valuation)
	if err != nil {
		return res, err
	}
	sched := base
	if base.Kind == KindFloating {
		sched, err = ProjectFloating(base, in.Projection, in.Terms.QuotedMarginBP, in.Terms.CurrentFixing)
		if err != nil {
			return res, err
		}
	}
	res.Kind = sched.Kind

	accrued := sched.Accrued
	if in.AccruedInterest != nil {
		accrued = *in.AccruedInterest
	}
	dirty := in.DirtyPrice
	if dirty <= 0 {
		dirty = in.CleanPrice + accrued
	}
	res.DirtyPrice = NewMeasure(dirty, UnitPer100)
	res.CleanPrice = NewMeasure(dirty-accrued, UnitPer100)
	res.AccruedInterest = NewMeasure(accrued, UnitPer100)

	comp := in.Compounding
	bracket := in.Bracket
	if bracket == (solver.Bracket{}) {
		bracket = DefaultYieldBracket
	}

	ytm, err := SolveYield(sched, dirty, comp, bracket, in.Solver)
	if err != nil {
		return res, fmt.Errorf("Analyze: %w", err)
	}
	res.YTM = NewMeasure(ytm*100, UnitPercent)

	z, err := SolveZSpread(sched, disc, dirty, comp, bracket, in.Solver)
	if err != nil {
		return res, fmt.Errorf("Analyze: %w", err)
	}
	res.ZSpread = NewMeasure(z*1e4, UnitBasisPoints)

	g, err := GSpread(ytm, sched, disc)
	if err != nil {
		return res, fmt.Errorf("Analyze: %w", err)
	}
	res.GSpread = NewMeasure(g*1e4, UnitBasisPoints)

	if sched.Kind == KindFloating {
		dm, err := DiscountMargin(sched, disc, dirty)
		switch {
		case err == nil:
			res.DiscountMargin = NewMeasure(dm, UnitBasisPoints)
		case errors.Is(err, ErrNotApplicable):
		default:
			return res, fmt.Errorf("Analyze: %w", err)
		}
	}

	mac := Macaulay(sched, ytm, comp)
	mod := ModifiedFromMacaulay(mac, ytm, comp)
	eff, conv := EffectiveRisk(parallelRepricer(in, base, sched, disc, z, comp), dirty, in.Risk.BumpBP)
	res.MacaulayDuration = NewMeasure(mac, UnitYears)
	res.ModifiedDuration = NewMeasure(mod, UnitYears)
	res.EffectiveDuration = NewMeasure(eff, UnitYears)
	res.Convexity = NewMeasure(conv, UnitUnitless)
	res.DV01 = NewMeasure(mod*dirty/1e4, UnitPer100)

	krd, err := KeyRateDurations(sched, disc, z, comp, in.Risk)
	if err != nil {
		return res, fmt.Errorf("Analyze: %w", err)
	}
	res.KeyRateDurations = krd

	matDate, _ := sched.Maturity()
	calls := futureCalls(in.Terms.Calls, in.Valuation, matDate)
	if len(calls) > 0 {
		if err := analyzeCalls(&res, in, sched, disc, dirty, ytm, comp, bracket, calls); err != nil {
			return res, fmt.Errorf("Analyze: %w", err)
		}
	}

	if in.Strategy != nil {
		sr, err := in.Strategy.SolveOAS(ctx, StrategyInput{
			Schedule:    sched,
			Calls:       calls,
			Discount:    disc,
			DirtyPrice:  dirty,
			ZSpreadBP:   z * 1e4,
			Compounding: comp,
		})
		if err != nil {
			return res, fmt.Errorf("Analyze: oas: %w", err)
		}
		quality := sr.Quality
		if quality == "" {
			quality = QualityOK
		}
		res.OAS = &OASResult{
			OAS:           NewMeasure(sr.OASBP, UnitBasisPoints),
			StandardError: NewMeasure(sr.StandardErrorBP, UnitBasisPoints),
			Quality:       quality,
			Method:        sr.Method,
		}
	}

	return res, nil
}

// parallelRepricer values the bond under a parallel rate shift. Floaters
// reproject their coupons off the shifted projection curve, so rising rates
// raise their coupons as well as their discounting.
func parallelRepricer(in Input, base, sched *Schedule, disc *curve.Zero, z float64, comp curve.Compounding) func(float64) float64 {
	return func(shift float64) float64 {
		target := sched
		if sched.Kind == KindFloating {
			p, err := ProjectFloating(base, in.Projection.Shifted(shift), in.Terms.QuotedMarginBP, in.Terms.CurrentFixing)
			if err != nil {
				return math.NaN()
			}
			target = p
		}
		pv, err := PresentValue(target, disc, z+shift, comp)
		if err != nil {
			return math.NaN()
		}
		return pv
	}
}

func analyzeCalls(res *Result, in Input, sched *Schedule, disc *curve.Zero, dirty, ytm float64, comp curve.Compounding, bracket solver.Bracket, calls []CallEntry) error {
	matDate, _ := sched.Maturity()

	// Redemption at maturity is always a candidate for the worst outcome.
	worst := CallResult{
		CallDate:          matDate,
		CallPrice:         100,
		YTM:               res.YTM,
		ZSpread:           res.ZSpread,
		GSpread:           res.GSpread,
		ModifiedDuration:  res.ModifiedDuration,
		EffectiveDuration: res.EffectiveDuration,
		Convexity:         res.Convexity,
		DV01:              res.DV01,
	}
	worstYield := ytm

	for i, c := range calls {
		trunc, err := TruncateAtCall(sched, c)
		if err != nil {
			return err
		}
		cr, ytc, err := callAnalytics(trunc, c, in, disc, dirty, comp, bracket)
		if err != nil {
			return err
		}
		if i == 0 {
			next := cr
			res.NextCall = &next
		}
		if ytc < worstYield {
			worstYield = ytc
			worst = cr
		}
	}
	res.WorstCall = &worst
	return nil
}

func callAnalytics(trunc *Schedule, c CallEntry, in Input, disc *curve.Zero, dirty float64, comp curve.Compounding, bracket solver.Bracket) (CallResult, float64, error) {
	ytc, err := SolveYield(trunc, dirty, comp, bracket, in.Solver)
	if err != nil {
		return CallResult{}, 0, err
	}
	z, err := SolveZSpread(trunc, disc, dirty, comp, bracket, in.Solver)
	if err != nil {
		return CallResult{}, 0, err
	}
	g, err := GSpread(ytc, trunc, disc)
	if err != nil {
		return CallResult{}, 0, err
	}

	mac := Macaulay(trunc, ytc, comp)
	mod := ModifiedFromMacaulay(mac, ytc, comp)
	eff, conv := EffectiveRisk(func(shift float64) float64 {
		pv, _ := PresentValue(trunc, disc, z+shift, comp)
		return pv
	}, dirty, in.Risk.BumpBP)

	return CallResult{
		CallDate:          c.Date,
		CallPrice:         c.Price,
		YTM:               NewMeasure(ytc*100, UnitPercent),
		ZSpread:           NewMeasure(z*1e4, UnitBasisPoints),
		GSpread:           NewMeasure(g*1e4, UnitBasisPoints),
		ModifiedDuration:  NewMeasure(mod, UnitYears),
		EffectiveDuration: NewMeasure(eff, UnitYears),
		Convexity:         NewMeasure(conv, UnitUnitless),
		DV01:              NewMeasure(mod*dirty/1e4, UnitPer100),
	}, ytc, nil
}
