package curve

import (
	"fmt"
	"math"
)

// Compounding selects the discount factor basis. Periodic bases alias their
// payment count per year; Continuous is zero.
type Compounding int

const (
	Continuous Compounding = 0
	Annual     Compounding = 1
	Semiannual Compounding = 2
	Quarterly  Compounding = 4
	Monthly    Compounding = 12
)

// Valid reports whether c is one of the supported compounding bases.
func (c Compounding) Valid() bool {
	switch c {
	case Continuous, Annual, Semiannual, Quarterly, Monthly:
		return true
	default:
		return false
	}
}

func (c Compounding) String() string {
	switch c {
	case Continuous:
		return "Continuous"
	case Annual:
		return "Annual"
	case Semiannual:
		return "Semiannual"
	case Quarterly:
		return "Quarterly"
	case Monthly:
		return "Monthly"
	default:
		return fmt.Sprintf("Compounding(%d)", int(c))
	}
}

// ParseCompounding maps a frequency integer to a Compounding basis.
// Zero or negative means continuous.
func ParseCompounding(n int) (Compounding, error) {
	if n <= 0 {
		return Continuous, nil
	}
	c := Compounding(n)
	if !c.Valid() {
		return 0, fmt.Errorf("ParseCompounding: unsupported frequency %d", n)
	}
	return c, nil
}

// Discount converts an annualized rate and horizon into a discount factor
// under the given basis. Any positive basis discounts periodically at that
// frequency; non-positive bases discount continuously.
func Discount(rate, t float64, comp Compounding) float64 {
	if t <= 0 {
		return 1.0
	}
	if comp <= Continuous {
		return math.Exp(-rate * t)
	}
	m := float64(comp)
	base := 1.0 + rate/m
	if base <= 0 {
		return math.NaN()
	}
	return math.Pow(base, -m*t)
}
