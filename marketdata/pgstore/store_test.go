package pgstore_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mhaugen/bondlib/marketdata/pgstore"
)

// openTestDB needs a live database; set PG_DSN to run these tests.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := pgstore.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Ping())
	return db
}

func setupSchema(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS curve_points (
			currency text NOT NULL, asof date NOT NULL, tenor text NOT NULL,
			rate_percent numeric(12,6) NOT NULL,
			PRIMARY KEY (currency, asof, tenor))`,
		`CREATE TABLE IF NOT EXISTS bonds (
			id text PRIMARY KEY, kind text NOT NULL, currency text NOT NULL,
			issue_date date NOT NULL, maturity_date date NOT NULL,
			first_coupon_date date,
			coupon_percent numeric(12,6) NOT NULL DEFAULT 0,
			quoted_margin_bp numeric(12,4) NOT NULL DEFAULT 0,
			current_fixing_percent numeric(12,6) NOT NULL DEFAULT 0,
			frequency int NOT NULL DEFAULT 0,
			day_count text NOT NULL, business_day text NOT NULL DEFAULT '',
			clean_price numeric(14,6) NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS bond_calls (
			bond_id text NOT NULL, call_date date NOT NULL, price numeric(14,6) NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS bond_amortization (
			bond_id text NOT NULL, pay_date date NOT NULL, amount numeric(14,6) NOT NULL)`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	for _, stmt := range []string{
		`DELETE FROM curve_points WHERE currency = 'TTD'`,
		`DELETE FROM bond_calls WHERE bond_id LIKE 'TT-%'`,
		`DELETE FROM bond_amortization WHERE bond_id LIKE 'TT-%'`,
		`DELETE FROM bonds WHERE id LIKE 'TT-%'`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestStoreCurve(t *testing.T) {
	db := openTestDB(t)
	setupSchema(t, db)
	ctx := context.Background()
	asof := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	for _, row := range []struct {
		tenor string
		rate  string
	}{{"1Y", "4.80"}, {"5Y", "3.95"}, {"10Y", "4.00"}} {
		_, err := db.ExecContext(ctx,
			`INSERT INTO curve_points (currency, asof, tenor, rate_percent) VALUES ($1, $2, $3, $4)`,
			"TTD", asof, row.tenor, row.rate)
		require.NoError(t, err)
	}

	store := pgstore.New(db)
	crv, err := store.Curve(ctx, "TTD", asof)
	require.NoError(t, err)
	require.Equal(t, "TTD", crv.Currency())
	require.Equal(t, 0.048, crv.Rate(1))
	require.Equal(t, 0.04, crv.Rate(10))

	_, err = store.Curve(ctx, "XXX", asof)
	require.ErrorIs(t, err, pgstore.ErrNotFound)
}

func TestStoreBond(t *testing.T) {
	db := openTestDB(t)
	setupSchema(t, db)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO bonds (id, kind, currency, issue_date, maturity_date,
			coupon_percent, frequency, day_count, business_day, clean_price)
		VALUES ('TT-CALLABLE', 'FIXED', 'USD', '2021-03-15', '2031-03-15',
			5.25, 2, '30/360', 'Following', 101.25)`)
	require.NoError(t, err)
	for _, call := range []struct {
		date  string
		price string
	}{{"2027-03-15", "101.75"}, {"2026-03-15", "102.625"}} {
		_, err := db.ExecContext(ctx,
			`INSERT INTO bond_calls (bond_id, call_date, price) VALUES ('TT-CALLABLE', $1, $2)`,
			call.date, call.price)
		require.NoError(t, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO bond_amortization (bond_id, pay_date, amount) VALUES ('TT-CALLABLE', '2028-03-15', 25)`)
	require.NoError(t, err)

	store := pgstore.New(db)
	rec, err := store.Bond(ctx, "TT-CALLABLE")
	require.NoError(t, err)
	require.Equal(t, "FIXED", rec.Kind)
	require.Equal(t, "2021-03-15", rec.IssueDate)
	require.Empty(t, rec.FirstCouponDate)
	require.True(t, rec.CouponPercent.Equal(decimal.RequireFromString("5.25")),
		"coupon_percent = %s", rec.CouponPercent)

	// Calls come back date-ordered regardless of insert order.
	require.Len(t, rec.Calls, 2)
	require.Equal(t, "2026-03-15", rec.Calls[0].Date)
	require.Equal(t, "2027-03-15", rec.Calls[1].Date)
	require.Len(t, rec.Amortization, 1)

	terms, err := rec.Terms()
	require.NoError(t, err)
	require.Equal(t, 0.0525, terms.CouponRate)
	require.Len(t, terms.Calls, 2)

	_, err = store.Bond(ctx, "TT-MISSING")
	require.ErrorIs(t, err, pgstore.ErrNotFound)

	recs, err := store.Bonds(ctx)
	require.NoError(t, err)
	found := false
	for _, r := range recs {
		if r.ID == "TT-CALLABLE" {
			found = true
			require.Len(t, r.Calls, 2)
		}
	}
	require.True(t, found, "Bonds did not return TT-CALLABLE")
}
