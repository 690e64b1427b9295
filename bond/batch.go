package bond

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchOptions controls portfolio-level analysis.
type BatchOptions struct {
	// Parallelism caps concurrent securities. Zero means GOMAXPROCS.
	Parallelism int
	// Logger receives one warning per failed security and a summary line.
	// Nil disables logging.
	Logger *slog.Logger
}

// BatchItem pairs one security's result with its error, if any. A failed
// item still carries the partially-filled Result from Analyze.
type BatchItem struct {
	ID     string
	Result Result
	Err    error
}

// AnalyzeAll runs Analyze over a portfolio with bounded parallelism.
// One security failing never aborts the rest; its item records the error.
// Results are returned in input order.
func AnalyzeAll(ctx context.Context, inputs []Input, opts BatchOptions) []BatchItem {
	items := make([]BatchItem, len(inputs))

	par := opts.Parallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(par)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i] = BatchItem{ID: in.Terms.ID, Err: err}
				return nil
			}
			res, err := Analyze(gctx, in)
			items[i] = BatchItem{ID: in.Terms.ID, Result: res, Err: err}
			return nil
		})
	}
	// Workers never return errors; per-security failures live in items.
	_ = g.Wait()

	if opts.Logger != nil {
		failed := 0
		for _, item := range items {
			if item.Err != nil {
				failed++
				opts.Logger.Warn("analysis failed", "id", item.ID, "error", item.Err)
			}
		}
		opts.Logger.Info("batch complete", "total", len(items), "failed", failed)
	}
	return items
}
