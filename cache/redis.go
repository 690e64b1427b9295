package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mhaugen/bondlib/curve"
)

// Redis is a CurveCache shared across processes. Curves are stored as JSON
// pillar sets and rebuilt on read, so the interpolator state never crosses
// the wire.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client. A non-positive ttl stores entries
// without expiry.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl}
}

type curvePayload struct {
	Currency string        `json:"currency"`
	AsOf     time.Time     `json:"asof"`
	Points   []curve.Point `json:"points"`
	Shift    float64       `json:"shift,omitempty"`
}

func (r *Redis) Get(ctx context.Context, currency string, asof time.Time) (*curve.Zero, bool, error) {
	raw, err := r.client.Get(ctx, key(currency, asof)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key(currency, asof), err)
	}

	var p curvePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key(currency, asof), err)
	}
	crv, err := curve.NewZero(p.Currency, p.AsOf, p.Points)
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key(currency, asof), err)
	}
	if p.Shift != 0 {
		crv = crv.Shifted(p.Shift)
	}
	return crv, true, nil
}

func (r *Redis) Put(ctx context.Context, crv *curve.Zero) error {
	if crv == nil {
		return curve.ErrEmptyCurve
	}
	raw, err := json.Marshal(curvePayload{
		Currency: crv.Currency(),
		AsOf:     crv.AsOf(),
		Points:   crv.Points(),
		Shift:    crv.Shift(),
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	k := key(crv.Currency(), crv.AsOf())
	if err := r.client.Set(ctx, k, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", k, err)
	}
	return nil
}
