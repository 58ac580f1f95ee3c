package markov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	return cfg
}

func TestSimulateBatchShape(t *testing.T) {
	m, err := FitFromPrices(seededConfig(42), []float64{100, 101, 99, 100, 102})
	require.NoError(t, err)

	batch, err := m.Simulate(5, 1000, 100.0)
	require.NoError(t, err)

	assert.Len(t, batch.Paths, 1000)
	assert.Len(t, batch.TerminalStates, 1000)
	assert.Equal(t, 100.0, batch.StartPrice)
	for _, path := range batch.Paths {
		require.Len(t, path, 6)
		assert.Equal(t, 100.0, path[0])
	}
}

func TestSimulatePricesStayPositive(t *testing.T) {
	// Historical returns are all > -1, so compounded prices never cross zero.
	m, err := FitFromPrices(seededConfig(7), []float64{100, 80, 120, 90, 110, 95})
	require.NoError(t, err)

	batch, err := m.Simulate(50, 200, 0)
	require.NoError(t, err)
	for _, path := range batch.Paths {
		for _, price := range path {
			assert.Greater(t, price, 0.0)
		}
	}
}

func TestSimulateDefaultStartPrice(t *testing.T) {
	m, err := FitFromPrices(seededConfig(1), []float64{100, 101, 99, 100, 102})
	require.NoError(t, err)

	batch, err := m.Simulate(3, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 102.0, batch.StartPrice, "fit-from-prices records the last price")

	mr, err := FitFromReturns(seededConfig(1), []float64{0.01, -0.02, 0.015})
	require.NoError(t, err)

	batch, err = mr.Simulate(3, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStartPrice, batch.StartPrice, "fit-from-returns falls back to the hardcoded default")
}

func TestSimulateParameterErrors(t *testing.T) {
	m, err := FitFromPrices(seededConfig(1), []float64{100, 101, 99, 100, 102})
	require.NoError(t, err)

	_, err = m.Simulate(0, 10, 100)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = m.Simulate(5, 0, 100)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = m.Simulate(-3, -1, 100)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	cfg := seededConfig(99)
	cfg.Workers = 2

	m, err := FitFromPrices(cfg, []float64{100, 101, 99, 100, 102, 101, 103})
	require.NoError(t, err)

	a, err := m.Simulate(10, 100, 100)
	require.NoError(t, err)
	b, err := m.Simulate(10, 100, 100)
	require.NoError(t, err)

	assert.Equal(t, a.Paths, b.Paths, "same seed must reproduce identical paths")
	assert.Equal(t, a.TerminalStates, b.TerminalStates)
}

func TestSimulateEmptyBucketFallsBackToFullSeries(t *testing.T) {
	// All returns are Up-state, so Down and Flat buckets are empty. The
	// smoothed matrix still transitions into them; sampling must silently
	// draw from the full calibration series instead of failing.
	m, err := FitFromReturns(seededConfig(3), []float64{0.02, 0.03, 0.025, 0.04})
	require.NoError(t, err)

	assert.Empty(t, m.Bucket(StateDown))
	assert.Empty(t, m.Bucket(StateFlat))

	batch, err := m.Simulate(40, 500, 100)
	require.NoError(t, err)

	sawNonUp := false
	for _, s := range batch.TerminalStates {
		if s != StateUp {
			sawNonUp = true
			break
		}
	}
	assert.True(t, sawNonUp, "smoothing should visit unobserved states over 20k draws")

	// Every sampled return came from the full series, so each step compounds
	// by one of the observed factors; prices stay positive and above start.
	for _, path := range batch.Paths {
		assert.Greater(t, path[len(path)-1], 100.0)
	}
}

func TestSimulateSingleWorkerChunking(t *testing.T) {
	cfg := seededConfig(5)
	cfg.Workers = 8

	m, err := FitFromPrices(cfg, []float64{100, 101, 99, 100, 102})
	require.NoError(t, err)

	// Fewer scenarios than workers must still produce every path.
	batch, err := m.Simulate(4, 3, 100)
	require.NoError(t, err)
	require.Len(t, batch.Paths, 3)
	for _, path := range batch.Paths {
		require.NotNil(t, path)
		assert.Len(t, path, 5)
	}
}
