// Command bondcalc prices and risk-measures a portfolio of bonds off a zero
// curve, from a JSON fixture, a PostgreSQL database, or the bundled sample
// data, and prints one JSON result per bond.
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

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/cache"
	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/marketdata"
	"github.com/mhaugen/bondlib/marketdata/pgstore"
)

type fixture struct {
	Valuation string                     `json:"valuation,omitempty"`
	Curve     []marketdata.CurveRow      `json:"curve"`
	Bonds     []marketdata.BondRecord    `json:"bonds"`
	Fixings   map[string]decimal.Decimal `json:"fixings,omitempty"`
}

// source is the resolved market data: either a prebuilt curve or pillar rows
// still to build, plus the bonds and index fixings.
type source struct {
	curve *curve.Zero
	rows  []marketdata.CurveRow
	bonds []marketdata.BondRecord
	feed  marketdata.FixingFeed
}

type output struct {
	bond.Result
	Error string `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bondcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		input       = fs.String("input", "", "fixture JSON path with curve and bonds")
		sample      = fs.Bool("sample", false, "use the bundled sample data")
		pgDSN       = fs.String("pg-dsn", "", "load curve and bonds from PostgreSQL")
		currency    = fs.String("currency", "USD", "curve currency (with -pg-dsn)")
		valuation   = fs.String("valuation", "", "valuation date YYYY-MM-DD (default: curve as-of)")
		bumpBP      = fs.Float64("bump-bp", 0, "effective risk bump in basis points (default 10)")
		parallelism = fs.Int("parallelism", 0, "bonds analyzed concurrently (default GOMAXPROCS)")
		redisAddr   = fs.String("redis", "", "redis address for the shared curve cache")
		verbose     = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *input == "" && !*sample && *pgDSN == "" {
		fmt.Fprintln(stderr, "bondcalc: pass -input, -sample or -pg-dsn")
		fs.Usage()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	ctx := context.Background()

	var valDate time.Time
	if *valuation != "" {
		d, err := time.Parse(time.DateOnly, *valuation)
		if err != nil {
			fmt.Fprintf(stderr, "bondcalc: valuation: %v\n", err)
			return 1
		}
		valDate = d
	}

	src, err := loadSource(ctx, *input, *sample, *pgDSN, *currency, valDate)
	if err != nil {
		fmt.Fprintf(stderr, "bondcalc: %v\n", err)
		return 1
	}

	crv, err := resolveCurve(ctx, buildCache(*redisAddr), src, logger)
	if err != nil {
		fmt.Fprintf(stderr, "bondcalc: %v\n", err)
		return 1
	}

	asof := valDate
	if asof.IsZero() {
		asof = crv.AsOf()
	}

	inputs := make([]bond.Input, 0, len(src.bonds))
	for _, rec := range src.bonds {
		terms, err := rec.Terms()
		if err != nil {
			fmt.Fprintf(stderr, "bondcalc: %v\n", err)
			return 1
		}
		applyFixing(&terms, src.feed, asof, logger)
		in := bond.Input{
			Terms:      terms,
			Valuation:  asof,
			Projection: crv,
			CleanPrice: rec.CleanPrice.InexactFloat64(),
		}
		if *bumpBP > 0 {
			in.Risk = bond.RiskConfig{BumpBP: *bumpBP}
		}
		inputs = append(inputs, in)
	}

	items := bond.AnalyzeAll(ctx, inputs, bond.BatchOptions{
		Parallelism: *parallelism,
		Logger:      logger,
	})

	outs := make([]output, len(items))
	failed := 0
	for i, item := range items {
		outs[i] = output{Result: item.Result}
		if item.Err != nil {
			outs[i].Error = item.Err.Error()
			failed++
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outs); err != nil {
		fmt.Fprintf(stderr, "bondcalc: json encode: %v\n", err)
		return 1
	}
	if failed > 0 && failed == len(items) {
		return 1
	}
	return 0
}

func loadSource(ctx context.Context, input string, sample bool, pgDSN, currency string, valuation time.Time) (source, error) {
	switch {
	case pgDSN != "":
		db, err := pgstore.Open(pgDSN)
		if err != nil {
			return source{}, err
		}
		defer db.Close()
		store := pgstore.New(db)

		asof := valuation
		if asof.IsZero() {
			asof = time.Now().UTC().Truncate(24 * time.Hour)
		}
		crv, err := store.Curve(ctx, currency, asof)
		if err != nil {
			return source{}, err
		}
		recs, err := store.Bonds(ctx)
		if err != nil {
			return source{}, err
		}
		return source{curve: crv, bonds: recs, feed: marketdata.NewStaticFixings(nil)}, nil

	case input != "":
		raw, err := os.ReadFile(input)
		if err != nil {
			return source{}, err
		}
		var fx fixture
		if err := json.Unmarshal(raw, &fx); err != nil {
			return source{}, fmt.Errorf("parse %s: %w", input, err)
		}
		rates := make(map[string]float64, len(fx.Fixings))
		for d, p := range fx.Fixings {
			rates[d] = p.Div(decimal.NewFromInt(100)).InexactFloat64()
		}
		return source{rows: fx.Curve, bonds: fx.Bonds, feed: marketdata.NewStaticFixings(rates)}, nil

	default:
		crv, err := marketdata.SampleCurve()
		if err != nil {
			return source{}, err
		}
		recs, err := marketdata.SampleBonds()
		if err != nil {
			return source{}, err
		}
		feed, err := marketdata.SampleFixings()
		if err != nil {
			return source{}, err
		}
		return source{curve: crv, bonds: recs, feed: feed}, nil
	}
}

func buildCache(redisAddr string) cache.CurveCache {
	if redisAddr == "" {
		return cache.NewMemory()
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	return cache.NewRedis(client, 24*time.Hour)
}

// resolveCurve returns the source's curve, preferring the shared cache for
// pillar-row sources and publishing whatever was built or loaded.
func resolveCurve(ctx context.Context, cc cache.CurveCache, src source, logger *slog.Logger) (*curve.Zero, error) {
	if src.curve != nil {
		if err := cc.Put(ctx, src.curve); err != nil {
			logger.Warn("curve cache put failed", "error", err)
		}
		return src.curve, nil
	}
	if len(src.rows) == 0 {
		return nil, fmt.Errorf("no curve pillars in input")
	}

	if asof, err := time.Parse(time.DateOnly, src.rows[0].AsOf); err == nil {
		crv, ok, err := cc.Get(ctx, src.rows[0].Currency, asof)
		if err != nil {
			logger.Warn("curve cache get failed", "error", err)
		} else if ok {
			logger.Debug("curve served from cache", "currency", src.rows[0].Currency, "asof", src.rows[0].AsOf)
			return crv, nil
		}
	}

	crv, err := marketdata.BuildCurve(src.rows)
	if err != nil {
		return nil, err
	}
	if err := cc.Put(ctx, crv); err != nil {
		logger.Warn("curve cache put failed", "error", err)
	}
	return crv, nil
}

// applyFixing fills a floater's running-period rate from the fixing feed
// when the record did not carry one.
func applyFixing(terms *bond.Terms, feed marketdata.FixingFeed, valuation time.Time, logger *slog.Logger) {
	if terms.Kind != bond.KindFloating || terms.CurrentFixing != 0 {
		return
	}
	s, err := bond.BuildSchedule(*terms, valuation)
	if err != nil || len(s.Flows) == 0 {
		return
	}
	reset := s.Flows[0].AccrualStart
	if rate, ok := feed.RateOn(reset); ok {
		terms.CurrentFixing = rate
		logger.Debug("fixing applied", "id", terms.ID, "reset", reset.Format(time.DateOnly), "rate", rate)
	} else {
		logger.Debug("no fixing found, projecting the running coupon", "id", terms.ID, "reset", reset.Format(time.DateOnly))
	}
}
