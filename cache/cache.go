// Package cache stores built zero curves keyed by currency and valuation
// date, so batch runs rebuild each curve once instead of per bond.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mhaugen/bondlib/curve"
)

// CurveCache looks up curves by currency and as-of date. A miss is reported
// through the bool, not an error; errors are reserved for backend failures.
type CurveCache interface {
	Get(ctx context.Context, currency string, asof time.Time) (*curve.Zero, bool, error)
	Put(ctx context.Context, crv *curve.Zero) error
}

func key(currency string, asof time.Time) string {
	return "curve:" + currency + ":" + asof.Format(time.DateOnly)
}

// Memory is a process-local CurveCache. Curves are immutable, so entries are
// shared with callers rather than copied.
type Memory struct {
	mu     sync.RWMutex
	curves map[string]*curve.Zero
}

func NewMemory() *Memory {
	return &Memory{curves: make(map[string]*curve.Zero)}
}

func (m *Memory) Get(_ context.Context, currency string, asof time.Time) (*curve.Zero, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	crv, ok := m.curves[key(currency, asof)]
	return crv, ok, nil
}

func (m *Memory) Put(_ context.Context, crv *curve.Zero) error {
	if crv == nil {
		return curve.ErrEmptyCurve
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.curves[key(crv.Currency(), crv.AsOf())] = crv
	return nil
}
