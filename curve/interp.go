package curve

import "math"

// Fritsch-Carlson monotone cubic Hermite interpolation. The tangent limiter
// keeps the interpolant monotone wherever the data is monotone, which avoids
// the implied-negative-forward artifacts a plain cubic spline can produce
// between curve pillars.

// monotoneTangents computes per-node tangents for the data (xs, ys).
// xs must be strictly increasing with len(xs) == len(ys) >= 2.
func monotoneTangents(xs, ys []float64) []float64 {
	n := len(xs)
	m := make([]float64, n)
	delta := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		delta[i] = (ys[i+1] - ys[i]) / (xs[i+1] - xs[i])
	}

	m[0] = delta[0]
	m[n-1] = delta[n-2]
	for i := 1; i < n-1; i++ {
		if delta[i-1]*delta[i] <= 0 {
			m[i] = 0
		} else {
			m[i] = (delta[i-1] + delta[i]) / 2
		}
	}

	// Limit tangents so each interval stays monotone (alpha^2 + beta^2 <= 9).
	for i := 0; i < n-1; i++ {
		if delta[i] == 0 {
			m[i] = 0
			m[i+1] = 0
			continue
		}
		alpha := m[i] / delta[i]
		beta := m[i+1] / delta[i]
		s := alpha*alpha + beta*beta
		if s > 9 {
			tau := 3 / math.Sqrt(s)
			m[i] = tau * alpha * delta[i]
			m[i+1] = tau * beta * delta[i]
		}
	}
	return m
}

// hermite evaluates the cubic Hermite segment [x0, x1] at x.
func hermite(x, x0, x1, y0, y1, m0, m1 float64) float64 {
	h := x1 - x0
	s := (x - x0) / h
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*y0 + h10*h*m0 + h01*y1 + h11*h*m1
}
