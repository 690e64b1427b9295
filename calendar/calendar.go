package calendar

import (
	"fmt"
	"strings"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	USNY   CalendarID = "USNY"
	TARGET CalendarID = "TARGET"
	GBLO   CalendarID = "GBLO"
	JPTO   CalendarID = "JPTO"
	KRSE   CalendarID = "KRSE"

	// Default is the weekend-only fallback calendar used for currencies
	// without a mapped holiday set.
	Default CalendarID = "DEFAULT"
)

// ForCurrency maps an ISO currency code to its market calendar.
// Unmapped currencies fall back to the Default calendar.
func ForCurrency(ccy string) CalendarID {
	switch strings.ToUpper(strings.TrimSpace(ccy)) {
	case "USD":
		return USNY
	case "EUR":
		return TARGET
	case "GBP":
		return GBLO
	case "JPY":
		return JPTO
	case "KRW":
		return KRSE
	default:
		return Default
	}
}

// Convention is a business-day adjustment rule.
type Convention string

const (
	Following         Convention = "FOLLOWING"
	ModifiedFollowing Convention = "MODFOLLOWING"
	Preceding         Convention = "PRECEDING"
	ModifiedPreceding Convention = "MODPRECEDING"
	Unadjusted        Convention = "UNADJUSTED"
)

// InvalidConventionError reports an unrecognized business-day convention string.
type InvalidConventionError struct {
	Value string
}

func (e *InvalidConventionError) Error() string {
	return fmt.Sprintf("invalid business day convention %q", e.Value)
}

// ParseConvention normalizes a business-day convention string.
// Unknown identifiers are an error, never silently defaulted.
func ParseConvention(s string) (Convention, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "FOLLOWING", "F":
		return Following, nil
	case "MODFOLLOWING", "MODIFIEDFOLLOWING", "MF":
		return ModifiedFollowing, nil
	case "PRECEDING", "P":
		return Preceding, nil
	case "MODPRECEDING", "MODIFIEDPRECEDING", "MP":
		return ModifiedPreceding, nil
	case "UNADJUSTED", "NONE", "":
		return Unadjusted, nil
	default:
		return "", &InvalidConventionError{Value: s}
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	set, ok := holidaySets[cal]
	if !ok {
		return false
	}
	_, hit := set[t.Format("2006-01-02")]
	return hit
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// AdjustDate applies the given business-day convention on cal.
func AdjustDate(cal CalendarID, t time.Time, conv Convention) (time.Time, error) {
	switch conv {
	case Following:
		return adjustFollowing(cal, t), nil
	case ModifiedFollowing:
		return adjustModifiedFollowing(cal, t), nil
	case Preceding:
		return adjustPreceding(cal, t), nil
	case ModifiedPreceding:
		return adjustModifiedPreceding(cal, t), nil
	case Unadjusted:
		return t, nil
	default:
		return time.Time{}, &InvalidConventionError{Value: string(conv)}
	}
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	return adjustModifiedFollowing(cal, t)
}

func adjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func adjustModifiedFollowing(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	t = adjustFollowing(cal, t)
	if t.Month() != origMonth {
		t = adjustPreceding(cal, t.AddDate(0, 0, -1))
	}
	return t
}

func adjustPreceding(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

func adjustModifiedPreceding(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	t = adjustPreceding(cal, t)
	if t.Month() != origMonth {
		t = adjustFollowing(cal, t.AddDate(0, 0, 1))
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// IsEndOfMonth checks if t is the last business day of its month.
func IsEndOfMonth(cal CalendarID, t time.Time) bool {
	return t.Equal(LastBusinessDayOfMonth(cal, t))
}
