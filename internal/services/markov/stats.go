package markov

import "math"

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the Bessel-corrected sample standard deviation.
// Undefined (NaN) for fewer than two observations.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	mean := Mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// Quantile computes the p-quantile of an ascending-sorted slice by linear
// interpolation between order statistics. Continuous in p and exact at the
// endpoints: Quantile(s, 0) == s[0], Quantile(s, 1) == s[len(s)-1].
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	idx := float64(n-1) * p
	i := int(math.Floor(idx))
	if i+1 >= n {
		return sorted[n-1]
	}
	f := idx - float64(i)
	return (1-f)*sorted[i] + f*sorted[i+1]
}
