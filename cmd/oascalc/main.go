// Command oascalc backs out the option-adjusted spread of one callable bond
// under the Hull-White Monte Carlo engine, falling back to the Black-76
// proxy when no volatility input is available.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/hullwhite"
	"github.com/mhaugen/bondlib/marketdata"
)

// fixture shares bondcalc's input layout so one file drives both tools.
type fixture struct {
	Valuation string                  `json:"valuation,omitempty"`
	Curve     []marketdata.CurveRow   `json:"curve"`
	Bonds     []marketdata.BondRecord `json:"bonds"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("oascalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		input   = fs.String("input", "", "fixture JSON path with curve and bonds")
		sample  = fs.Bool("sample", false, "use the bundled sample data")
		id      = fs.String("id", "", "bond to analyze (default: first bond with calls)")
		sigma   = fs.Float64("sigma", 0, "short-rate volatility (0: calibrate from -quotes, or fall back)")
		meanRev = fs.Float64("mean-reversion", 0, "mean reversion speed (default 0.03)")
		paths   = fs.Int("paths", 0, "Monte Carlo paths (default 10000)")
		seed    = fs.Uint64("seed", 0, "simulation seed (default 1)")
		maxSE   = fs.Float64("max-se-bp", 0, "standard error above which results are tagged (default 1)")
		quotesP = fs.String("quotes", "", "swaption normal vol quotes JSON for calibration")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *input == "" && !*sample {
		fmt.Fprintln(stderr, "oascalc: pass -input or -sample")
		fs.Usage()
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	ctx := context.Background()

	crv, valuation, recs, err := loadData(*input)
	if err != nil {
		fmt.Fprintf(stderr, "oascalc: %v\n", err)
		return 1
	}

	rec, err := pickBond(recs, *id)
	if err != nil {
		fmt.Fprintf(stderr, "oascalc: %v\n", err)
		return 1
	}
	terms, err := rec.Terms()
	if err != nil {
		fmt.Fprintf(stderr, "oascalc: %v\n", err)
		return 1
	}

	var quotes []hullwhite.SwaptionVol
	if *quotesP != "" {
		raw, err := os.ReadFile(*quotesP)
		if err != nil {
			fmt.Fprintf(stderr, "oascalc: %v\n", err)
			return 1
		}
		if err := json.Unmarshal(raw, &quotes); err != nil {
			fmt.Fprintf(stderr, "oascalc: parse %s: %v\n", *quotesP, err)
			return 1
		}
	}

	st := &hullwhite.Strategy{
		Config: hullwhite.Config{
			Paths:              *paths,
			Seed:               *seed,
			MeanReversion:      *meanRev,
			Sigma:              *sigma,
			MaxStandardErrorBP: *maxSE,
		},
		Quotes: quotes,
	}

	res, err := bond.Analyze(ctx, bond.Input{
		Terms:      terms,
		Valuation:  valuation,
		Projection: crv,
		CleanPrice: rec.CleanPrice.InexactFloat64(),
		Strategy:   st,
	})
	if err != nil {
		logger.Warn("analysis incomplete", "id", terms.ID, "error", err)
	}
	if res.OAS != nil {
		logger.Info("oas solved", "id", terms.ID, "method", res.OAS.Method, "quality", res.OAS.Quality)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		fmt.Fprintf(stderr, "oascalc: json encode: %v\n", encErr)
		return 1
	}
	if err != nil {
		return 1
	}
	return 0
}

func loadData(input string) (*curve.Zero, time.Time, []marketdata.BondRecord, error) {
	if input == "" {
		crv, err := marketdata.SampleCurve()
		if err != nil {
			return nil, time.Time{}, nil, err
		}
		recs, err := marketdata.SampleBonds()
		if err != nil {
			return nil, time.Time{}, nil, err
		}
		return crv, crv.AsOf(), recs, nil
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return nil, time.Time{}, nil, err
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("parse %s: %w", input, err)
	}
	crv, err := marketdata.BuildCurve(fx.Curve)
	if err != nil {
		return nil, time.Time{}, nil, err
	}
	valuation := crv.AsOf()
	if fx.Valuation != "" {
		valuation, err = time.Parse(time.DateOnly, fx.Valuation)
		if err != nil {
			return nil, time.Time{}, nil, fmt.Errorf("valuation date %q: want YYYY-MM-DD", fx.Valuation)
		}
	}
	return crv, valuation, fx.Bonds, nil
}

func pickBond(recs []marketdata.BondRecord, id string) (marketdata.BondRecord, error) {
	if id != "" {
		for _, rec := range recs {
			if rec.ID == id {
				return rec, nil
			}
		}
		return marketdata.BondRecord{}, fmt.Errorf("bond %q not in input", id)
	}
	for _, rec := range recs {
		if len(rec.Calls) > 0 {
			return rec, nil
		}
	}
	return marketdata.BondRecord{}, fmt.Errorf("no callable bond in input; pass -id")
}
