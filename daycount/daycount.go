// Package daycount converts date pairs into year fractions under market
// day count conventions.
package daycount

import (
	"fmt"
	"strings"
	"time"

	"github.com/mhaugen/bondlib/utils"
)

// Convention is a day count convention identifier.
type Convention string

const (
	// ActActISDA splits the accrual period by calendar year, dividing the
	// days in each year by that year's actual length (365 or 366).
	ActActISDA Convention = "ACT/ACT"
	// Thirty360 is the US bond basis (30/360).
	Thirty360 Convention = "30/360"
	// ThirtyE360 is the Eurobond basis (30E/360).
	ThirtyE360 Convention = "30E/360"
	// Act360 divides actual days by 360.
	Act360 Convention = "ACT/360"
	// Act365F divides actual days by a fixed 365.
	Act365F Convention = "ACT/365F"
)

// InvalidConventionError reports an unrecognized day count convention string.
type InvalidConventionError struct {
	Value string
}

func (e *InvalidConventionError) Error() string {
	return fmt.Sprintf("invalid day count convention %q", e.Value)
}

// Parse normalizes a day count convention string. Unknown identifiers are
// an error, never silently defaulted.
func Parse(s string) (Convention, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "ACT/ACT", "ACT/ACT-ISDA", "ACTACT", "ACT/ACTISDA":
		return ActActISDA, nil
	case "30/360", "30/360US", "BOND":
		return Thirty360, nil
	case "30E/360", "EUROBOND":
		return ThirtyE360, nil
	case "ACT/360", "A/360":
		return Act360, nil
	case "ACT/365F", "ACT/365", "A/365F":
		return Act365F, nil
	default:
		return "", &InvalidConventionError{Value: s}
	}
}

// YearFraction computes the year fraction between two dates under the given
// convention. A reversed date pair yields the negated fraction.
func YearFraction(start, end time.Time, c Convention) (float64, error) {
	if end.Before(start) {
		f, err := YearFraction(end, start, c)
		return -f, err
	}

	switch c {
	case Act360:
		return days(start, end) / 360.0, nil
	case Act365F:
		return days(start, end) / 365.0, nil
	case Thirty360:
		d1, d2 := start.Day(), end.Day()
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 == 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2), nil
	case ThirtyE360:
		d1, d2 := start.Day(), end.Day()
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2), nil
	case ActActISDA:
		return actActISDA(start, end), nil
	default:
		return 0, &InvalidConventionError{Value: string(c)}
	}
}

func days(start, end time.Time) float64 {
	return utils.Days(start, end)
}

func thirty360(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}

// actActISDA walks the period one calendar year at a time so that days in
// leap years divide by 366 and days in common years by 365.
func actActISDA(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}

	total := 0.0
	for y := start.Year(); y <= end.Year(); y++ {
		yearStart := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		yearEnd := time.Date(y+1, time.January, 1, 0, 0, 0, 0, time.UTC)

		lo := start
		if yearStart.After(lo) {
			lo = yearStart
		}
		hi := end
		if yearEnd.Before(hi) {
			hi = yearEnd
		}
		if !hi.After(lo) {
			continue
		}

		total += days(lo, hi) / yearBasis(y)
	}
	return total
}

func yearBasis(year int) float64 {
	if isLeapYear(year) {
		return 366
	}
	return 365
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
