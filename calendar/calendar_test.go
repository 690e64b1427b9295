package calendar_test

import (
	"errors"
	"testing"
	"time"

	"github.com/mhaugen/bondlib/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdjustDate_Conventions(t *testing.T) {
	t.Parallel()

	// 2026-05-30 is a Saturday; 2026-05-25 (Memorial Day) is a USNY holiday.
	sat := date(2026, time.May, 30)

	cases := []struct {
		name string
		conv calendar.Convention
		want time.Time
	}{
		{"following", calendar.Following, date(2026, time.June, 1)},
		{"modified following rolls back at month end", calendar.ModifiedFollowing, date(2026, time.May, 29)},
		{"preceding", calendar.Preceding, date(2026, time.May, 29)},
		{"unadjusted", calendar.Unadjusted, sat},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := calendar.AdjustDate(calendar.USNY, sat, tc.conv)
			if err != nil {
				t.Fatalf("AdjustDate error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("AdjustDate(%s) = %s, want %s", tc.conv, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestAdjustDate_ModifiedPreceding(t *testing.T) {
	t.Parallel()

	// 2026-08-01 is a Saturday; Preceding would land in July,
	// so Modified Preceding rolls forward instead.
	sat := date(2026, time.August, 1)
	got, err := calendar.AdjustDate(calendar.USNY, sat, calendar.ModifiedPreceding)
	if err != nil {
		t.Fatalf("AdjustDate error: %v", err)
	}
	want := date(2026, time.August, 3)
	if !got.Equal(want) {
		t.Fatalf("ModifiedPreceding = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestAdjustDate_SkipsHolidays(t *testing.T) {
	t.Parallel()

	// 2026-12-25 is a Friday and a USNY holiday; Following lands on Monday.
	got, err := calendar.AdjustDate(calendar.USNY, date(2026, time.December, 25), calendar.Following)
	if err != nil {
		t.Fatalf("AdjustDate error: %v", err)
	}
	want := date(2026, time.December, 28)
	if !got.Equal(want) {
		t.Fatalf("Following over holiday = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestParseConvention(t *testing.T) {
	t.Parallel()

	conv, err := calendar.ParseConvention("Modified Following")
	if err != nil {
		t.Fatalf("ParseConvention error: %v", err)
	}
	if conv != calendar.ModifiedFollowing {
		t.Fatalf("ParseConvention = %s, want %s", conv, calendar.ModifiedFollowing)
	}

	_, err = calendar.ParseConvention("HALF-FOLLOWING")
	var invErr *calendar.InvalidConventionError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvalidConventionError, got %v", err)
	}
	if invErr.Value != "HALF-FOLLOWING" {
		t.Fatalf("error should name the offending value, got %q", invErr.Value)
	}
}

func TestForCurrency_Fallback(t *testing.T) {
	t.Parallel()

	if got := calendar.ForCurrency("USD"); got != calendar.USNY {
		t.Fatalf("ForCurrency(USD) = %s", got)
	}
	if got := calendar.ForCurrency("sek"); got != calendar.Default {
		t.Fatalf("ForCurrency(sek) = %s, want Default", got)
	}

	// Default calendar observes weekends only.
	if calendar.IsBusinessDay(calendar.Default, date(2026, time.December, 25)) != true {
		t.Fatalf("Default calendar should not observe USNY holidays")
	}
	if calendar.IsBusinessDay(calendar.Default, date(2026, time.December, 26)) {
		t.Fatalf("Default calendar should observe weekends")
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	// Thursday 2026-07-02 + 1 business day skips the observed July 4th
	// (Friday 2026-07-03) and the weekend.
	got := calendar.AddBusinessDays(calendar.USNY, date(2026, time.July, 2), 1)
	want := date(2026, time.July, 6)
	if !got.Equal(want) {
		t.Fatalf("AddBusinessDays = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}

	back := calendar.AddBusinessDays(calendar.USNY, want, -1)
	if !back.Equal(date(2026, time.July, 2)) {
		t.Fatalf("AddBusinessDays(-1) = %s, want 2026-07-02", back.Format("2006-01-02"))
	}
}

func TestMonthEndHelpers(t *testing.T) {
	t.Parallel()

	// May 2026 ends on Sunday the 31st; Friday the 29th is its last
	// business day.
	last := calendar.LastBusinessDayOfMonth(calendar.USNY, date(2026, time.May, 10))
	if !last.Equal(date(2026, time.May, 29)) {
		t.Fatalf("LastBusinessDayOfMonth = %s, want 2026-05-29", last.Format("2006-01-02"))
	}
	if !calendar.IsEndOfMonth(calendar.USNY, last) {
		t.Fatalf("IsEndOfMonth(%s) = false", last.Format("2006-01-02"))
	}
	if calendar.IsEndOfMonth(calendar.USNY, date(2026, time.May, 28)) {
		t.Fatalf("IsEndOfMonth(2026-05-28) = true")
	}

	// Adjust is the Modified Following shorthand.
	if got := calendar.Adjust(calendar.USNY, date(2026, time.May, 30)); !got.Equal(date(2026, time.May, 29)) {
		t.Fatalf("Adjust = %s, want 2026-05-29", got.Format("2006-01-02"))
	}
}
