package daycount_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mhaugen/bondlib/daycount"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearFraction_ActActISDA(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		start, end time.Time
		want       float64
	}{
		{
			// No leap day inside: exactly one year.
			name:  "common year span",
			start: date(2026, time.August, 25),
			end:   date(2027, time.August, 25),
			want:  1.0,
		},
		{
			// Crosses 2028-02-29: 129 days in 2027 (/365) + 237 days in 2028 (/366).
			name:  "leap year split",
			start: date(2027, time.August, 25),
			end:   date(2028, time.August, 25),
			want:  129.0/365.0 + 237.0/366.0,
		},
		{
			name:  "within leap year",
			start: date(2028, time.February, 1),
			end:   date(2028, time.March, 1),
			want:  29.0 / 366.0,
		},
		{
			name:  "zero span",
			start: date(2026, time.August, 25),
			end:   date(2026, time.August, 25),
			want:  0,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := daycount.YearFraction(tc.start, tc.end, daycount.ActActISDA)
			if err != nil {
				t.Fatalf("YearFraction error: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("YearFraction = %.12f, want %.12f", got, tc.want)
			}
		})
	}
}

func TestYearFraction_ThirtyConventions(t *testing.T) {
	t.Parallel()

	// 30/360 US keeps an end-of-month day 31 when the start day is below 30;
	// 30E/360 always caps it at 30.
	start := date(2026, time.July, 15)
	end := date(2026, time.August, 31)

	us, err := daycount.YearFraction(start, end, daycount.Thirty360)
	if err != nil {
		t.Fatalf("30/360 error: %v", err)
	}
	if math.Abs(us-46.0/360.0) > 1e-12 {
		t.Fatalf("30/360 = %.12f, want %.12f", us, 46.0/360.0)
	}

	euro, err := daycount.YearFraction(start, end, daycount.ThirtyE360)
	if err != nil {
		t.Fatalf("30E/360 error: %v", err)
	}
	if math.Abs(euro-45.0/360.0) > 1e-12 {
		t.Fatalf("30E/360 = %.12f, want %.12f", euro, 45.0/360.0)
	}

	// Both cap a day-31 start at 30.
	us31, err := daycount.YearFraction(date(2026, time.January, 31), date(2026, time.March, 31), daycount.Thirty360)
	if err != nil {
		t.Fatalf("30/360 error: %v", err)
	}
	if math.Abs(us31-60.0/360.0) > 1e-12 {
		t.Fatalf("30/360 from day 31 = %.12f, want %.12f", us31, 60.0/360.0)
	}
}

func TestYearFraction_ActBases(t *testing.T) {
	t.Parallel()

	start := date(2026, time.January, 1)
	end := date(2026, time.July, 1)

	a360, err := daycount.YearFraction(start, end, daycount.Act360)
	if err != nil {
		t.Fatalf("ACT/360 error: %v", err)
	}
	if math.Abs(a360-181.0/360.0) > 1e-12 {
		t.Fatalf("ACT/360 = %.12f, want %.12f", a360, 181.0/360.0)
	}

	a365, err := daycount.YearFraction(start, end, daycount.Act365F)
	if err != nil {
		t.Fatalf("ACT/365F error: %v", err)
	}
	if math.Abs(a365-181.0/365.0) > 1e-12 {
		t.Fatalf("ACT/365F = %.12f, want %.12f", a365, 181.0/365.0)
	}
}

func TestYearFraction_Reversed(t *testing.T) {
	t.Parallel()

	fwd, err := daycount.YearFraction(date(2026, time.January, 1), date(2026, time.July, 1), daycount.Act365F)
	if err != nil {
		t.Fatalf("forward error: %v", err)
	}
	rev, err := daycount.YearFraction(date(2026, time.July, 1), date(2026, time.January, 1), daycount.Act365F)
	if err != nil {
		t.Fatalf("reversed error: %v", err)
	}
	if math.Abs(fwd+rev) > 1e-12 {
		t.Fatalf("reversed span should negate: fwd=%.12f rev=%.12f", fwd, rev)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	c, err := daycount.Parse("act/act-isda")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if c != daycount.ActActISDA {
		t.Fatalf("Parse = %s, want %s", c, daycount.ActActISDA)
	}

	_, err = daycount.Parse("ACT/252")
	var invErr *daycount.InvalidConventionError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvalidConventionError, got %v", err)
	}
	if invErr.Value != "ACT/252" {
		t.Fatalf("error should name the offending value, got %q", invErr.Value)
	}
}
