package bond_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/curve"
)

func TestAnalyzeAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	crv := flatCurve(t, 0.04)

	good := func(id string) bond.Input {
		terms := tenYearBullet()
		terms.ID = id
		return bond.Input{
			Terms:       terms,
			Valuation:   date(2024, 1, 15),
			Projection:  crv,
			CleanPrice:  100,
			Compounding: curve.Annual,
		}
	}
	bad := good("B")
	bad.CleanPrice = 0 // no price at all

	inputs := []bond.Input{good("A"), bad, good("C")}
	items := bond.AnalyzeAll(context.Background(), inputs, bond.BatchOptions{
		Parallelism: 2,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	for i, id := range []string{"A", "B", "C"} {
		if items[i].ID != id {
			t.Fatalf("items[%d].ID = %q, want %q (input order preserved)", i, items[i].ID, id)
		}
	}
	if items[0].Err != nil || items[2].Err != nil {
		t.Fatalf("healthy securities failed: %v, %v", items[0].Err, items[2].Err)
	}
	if items[1].Err == nil {
		t.Fatalf("priceless security succeeded, want an error")
	}
	var invalid *bond.InvalidInputError
	if !errors.As(items[1].Err, &invalid) {
		t.Fatalf("items[1].Err = %v, want InvalidInputError", items[1].Err)
	}
	if !items[0].Result.YTM.Valid || !items[2].Result.YTM.Valid {
		t.Fatalf("healthy securities missing YTM")
	}
}

func TestAnalyzeAllCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := bond.Input{
		Terms:       tenYearBullet(),
		Valuation:   date(2024, 1, 15),
		Projection:  flatCurve(t, 0.04),
		CleanPrice:  100,
		Compounding: curve.Annual,
	}
	items := bond.AnalyzeAll(ctx, []bond.Input{in, in}, bond.BatchOptions{})

	for i, item := range items {
		if !errors.Is(item.Err, context.Canceled) {
			t.Fatalf("items[%d].Err = %v, want context.Canceled", i, item.Err)
		}
	}
}

func TestAnalyzeAllDefaultParallelism(t *testing.T) {
	crv := flatCurve(t, 0.04)
	inputs := make([]bond.Input, 8)
	for i := range inputs {
		terms := tenYearBullet()
		inputs[i] = bond.Input{
			Terms:       terms,
			Valuation:   date(2024, 1, 15),
			Projection:  crv,
			CleanPrice:  95 + float64(i),
			Compounding: curve.Annual,
		}
	}

	items := bond.AnalyzeAll(context.Background(), inputs, bond.BatchOptions{})
	for i, item := range items {
		if item.Err != nil {
			t.Fatalf("items[%d].Err = %v, want success", i, item.Err)
		}
	}

	// Cheaper bonds yield more.
	for i := 1; i < len(items); i++ {
		if items[i].Result.YTM.Value >= items[i-1].Result.YTM.Value {
			t.Fatalf("YTM not decreasing in price: %v then %v",
				items[i-1].Result.YTM.Value, items[i].Result.YTM.Value)
		}
	}
}
