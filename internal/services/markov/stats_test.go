package markov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestStdDevBesselCorrected(t *testing.T) {
	assert.True(t, math.IsNaN(StdDev(nil)))
	assert.True(t, math.IsNaN(StdDev([]float64{1.5})), "undefined below two observations")

	// Sample variance of {2,4,4,4,5,5,7,9} with n-1 divisor is 32/7.
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, math.Sqrt(32.0/7.0), got, 1e-12)
}

func TestQuantileEndpoints(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.Equal(t, 1.0, Quantile(sorted, -0.5))
	assert.Equal(t, 5.0, Quantile(sorted, 1))
	assert.Equal(t, 5.0, Quantile(sorted, 2))
	assert.Equal(t, 3.0, Quantile(sorted, 0.5))
}

func TestQuantileLinearInterpolation(t *testing.T) {
	sorted := []float64{10, 20}
	assert.InDelta(t, 12.5, Quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 17.5, Quantile(sorted, 0.75), 1e-12)

	single := []float64{42}
	assert.Equal(t, 42.0, Quantile(single, 0.3))
}

func TestQuantileMonotoneInP(t *testing.T) {
	sorted := []float64{-3, -1, 0, 2, 2.5, 7, 11}
	prev := math.Inf(-1)
	for p := 0.0; p <= 1.0; p += 0.01 {
		q := Quantile(sorted, p)
		require.GreaterOrEqual(t, q, prev, "quantile must be non-decreasing in p")
		prev = q
	}
}

func TestQuantileEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}
