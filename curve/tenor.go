package curve

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTenor converts tenor strings like "1W", "3M", "10Y" to year fractions.
// A bare number is read as years.
func ParseTenor(tenor string) (float64, error) {
	t := strings.TrimSpace(strings.ToUpper(tenor))
	if t == "" {
		return 0, fmt.Errorf("ParseTenor: empty tenor")
	}

	suffix := t[len(t)-1]
	num := t[:len(t)-1]
	switch suffix {
	case 'W':
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, err)
		}
		return v * 7.0 / 365.0, nil
	case 'M':
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, err)
		}
		return v / 12.0, nil
	case 'Y':
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, err)
		}
		return v, nil
	case 'D':
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, err)
		}
		return v / 365.0, nil
	}

	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, err)
	}
	return v, nil
}
