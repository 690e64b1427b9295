// Package pgstore loads curve pillars and bond records from PostgreSQL.
//
// Expected schema:
//
//	curve_points(currency text, asof date, tenor text, rate_percent numeric)
//	bonds(id text, kind text, currency text, issue_date date,
//	      maturity_date date, first_coupon_date date null,
//	      coupon_percent numeric, quoted_margin_bp numeric,
//	      current_fixing_percent numeric, frequency int,
//	      day_count text, business_day text, clean_price numeric)
//	bond_calls(bond_id text, call_date date, price numeric)
//	bond_amortization(bond_id text, pay_date date, amount numeric)
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/mhaugen/bondlib/curve"
	"github.com/mhaugen/bondlib/marketdata"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// Open connects with the lib/pq driver. The caller owns the handle.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	return db, nil
}

// Store reads market data from a PostgreSQL database.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Curve loads and builds the zero curve for one currency and date.
func (s *Store) Curve(ctx context.Context, currency string, asof time.Time) (*curve.Zero, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT currency, asof, tenor, rate_percent
		FROM curve_points
		WHERE currency = $1 AND asof = $2
		ORDER BY tenor`,
		currency, asof)
	if err != nil {
		return nil, fmt.Errorf("Curve %s %s: %w", currency, asof.Format(time.DateOnly), err)
	}
	defer rows.Close()

	var pillars []marketdata.CurveRow
	for rows.Next() {
		var (
			r  marketdata.CurveRow
			d  time.Time
			rp decimal.Decimal
		)
		if err := rows.Scan(&r.Currency, &d, &r.Tenor, &rp); err != nil {
			return nil, fmt.Errorf("Curve %s: %w", currency, err)
		}
		r.AsOf = d.Format(time.DateOnly)
		r.RatePercent = rp
		pillars = append(pillars, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Curve %s: %w", currency, err)
	}
	if len(pillars) == 0 {
		return nil, fmt.Errorf("Curve %s %s: %w", currency, asof.Format(time.DateOnly), ErrNotFound)
	}
	return marketdata.BuildCurve(pillars)
}

// Bond loads one bond record with its call schedule and amortization plan.
func (s *Store) Bond(ctx context.Context, id string) (marketdata.BondRecord, error) {
	rec, err := s.scanBond(s.db.QueryRowContext(ctx, `
		SELECT id, kind, currency, issue_date, maturity_date, first_coupon_date,
		       coupon_percent, quoted_margin_bp, current_fixing_percent,
		       frequency, day_count, business_day, clean_price
		FROM bonds
		WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return marketdata.BondRecord{}, fmt.Errorf("Bond %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return marketdata.BondRecord{}, fmt.Errorf("Bond %s: %w", id, err)
	}

	calls, amorts, err := s.features(ctx, id)
	if err != nil {
		return marketdata.BondRecord{}, fmt.Errorf("Bond %s: %w", id, err)
	}
	rec.Calls = calls[id]
	rec.Amortization = amorts[id]
	return rec, nil
}

// Bonds loads every bond record, features attached.
func (s *Store) Bonds(ctx context.Context) ([]marketdata.BondRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, currency, issue_date, maturity_date, first_coupon_date,
		       coupon_percent, quoted_margin_bp, current_fixing_percent,
		       frequency, day_count, business_day, clean_price
		FROM bonds
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("Bonds: %w", err)
	}
	defer rows.Close()

	var recs []marketdata.BondRecord
	for rows.Next() {
		rec, err := s.scanBond(rows)
		if err != nil {
			return nil, fmt.Errorf("Bonds: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Bonds: %w", err)
	}

	calls, amorts, err := s.features(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("Bonds: %w", err)
	}
	for i := range recs {
		recs[i].Calls = calls[recs[i].ID]
		recs[i].Amortization = amorts[recs[i].ID]
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanBond(row rowScanner) (marketdata.BondRecord, error) {
	var (
		rec         marketdata.BondRecord
		issue       time.Time
		maturity    time.Time
		firstCoupon sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Currency, &issue, &maturity, &firstCoupon,
		&rec.CouponPercent, &rec.QuotedMarginBP, &rec.CurrentFixingPercent,
		&rec.Frequency, &rec.DayCount, &rec.BusinessDay, &rec.CleanPrice)
	if err != nil {
		return marketdata.BondRecord{}, err
	}
	rec.IssueDate = issue.Format(time.DateOnly)
	rec.MaturityDate = maturity.Format(time.DateOnly)
	if firstCoupon.Valid {
		rec.FirstCouponDate = firstCoupon.Time.Format(time.DateOnly)
	}
	return rec, nil
}

// features loads call and amortization rows grouped by bond, for one bond or
// for all when id is empty.
func (s *Store) features(ctx context.Context, id string) (map[string][]marketdata.CallRow, map[string][]marketdata.AmortRow, error) {
	filter := ""
	var args []any
	if id != "" {
		filter = " WHERE bond_id = $1"
		args = append(args, id)
	}

	calls := make(map[string][]marketdata.CallRow)
	err := s.eachRow(ctx, `SELECT bond_id, call_date, price FROM bond_calls`+filter+` ORDER BY call_date`, args, func(rows *sql.Rows) error {
		var (
			bondID string
			d      time.Time
			price  decimal.Decimal
		)
		if err := rows.Scan(&bondID, &d, &price); err != nil {
			return err
		}
		calls[bondID] = append(calls[bondID], marketdata.CallRow{Date: d.Format(time.DateOnly), Price: price})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	amorts := make(map[string][]marketdata.AmortRow)
	err = s.eachRow(ctx, `SELECT bond_id, pay_date, amount FROM bond_amortization`+filter+` ORDER BY pay_date`, args, func(rows *sql.Rows) error {
		var (
			bondID string
			d      time.Time
			amount decimal.Decimal
		)
		if err := rows.Scan(&bondID, &d, &amount); err != nil {
			return err
		}
		amorts[bondID] = append(amorts[bondID], marketdata.AmortRow{Date: d.Format(time.DateOnly), Amount: amount})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return calls, amorts, nil
}

func (s *Store) eachRow(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
