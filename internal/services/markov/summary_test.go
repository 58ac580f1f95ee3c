package markov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchFromTerminals(start float64, terminals []float64) *Batch {
	b := &Batch{StartPrice: start, Horizon: 1}
	for _, p := range terminals {
		b.Paths = append(b.Paths, []float64{start, p})
		b.TerminalStates = append(b.TerminalStates, StateFlat)
	}
	return b
}

func TestSummarizeMetrics(t *testing.T) {
	batch := batchFromTerminals(100, []float64{90, 95, 100, 105, 110})
	report := Summarize(batch, 100)

	assert.Equal(t, 100.0, report.StartPrice)
	assert.Equal(t, 100.0, report.MedianPrice)
	// 90 and 95 are losses; the exact-zero return at 100 is not.
	assert.InDelta(t, 0.4, report.ProbNegReturn, 1e-12)
	// 5th/95th percentiles of 5 sorted terminals via linear interpolation.
	assert.InDelta(t, 91.0, report.VaR5Price, 1e-12)
	assert.InDelta(t, 109.0, report.P95Price, 1e-12)
	assert.InDelta(t, 0.0, report.MeanReturn, 1e-12)

	wantStd := StdDev([]float64{-0.10, -0.05, 0, 0.05, 0.10})
	assert.InDelta(t, wantStd, report.StdReturn, 1e-12)
}

func TestSummarizeSingleScenarioStdIsNaN(t *testing.T) {
	report := Summarize(batchFromTerminals(100, []float64{104}), 100)

	assert.Equal(t, 104.0, report.MedianPrice)
	assert.InDelta(t, 0.04, report.MeanReturn, 1e-12)
	assert.True(t, math.IsNaN(report.StdReturn))
}

func TestPipelineEndToEnd(t *testing.T) {
	// Full pipeline over the worked example: calibrate, simulate, summarize.
	m, err := FitFromPrices(seededConfig(2024), []float64{100, 101, 99, 100, 102})
	require.NoError(t, err)

	batch, err := m.Simulate(5, 1000, 100)
	require.NoError(t, err)
	require.Len(t, batch.Paths, 1000)

	report := Summarize(batch, 100)
	assert.Equal(t, 100.0, report.StartPrice)

	for name, v := range map[string]float64{
		"median_price":    report.MedianPrice,
		"prob_neg_return": report.ProbNegReturn,
		"var5_price":      report.VaR5Price,
		"p95_price":       report.P95Price,
		"mean_return":     report.MeanReturn,
		"std_return":      report.StdReturn,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s must be finite", name)
	}

	assert.LessOrEqual(t, report.VaR5Price, report.MedianPrice)
	assert.LessOrEqual(t, report.MedianPrice, report.P95Price)
	assert.GreaterOrEqual(t, report.ProbNegReturn, 0.0)
	assert.LessOrEqual(t, report.ProbNegReturn, 1.0)
}
