package markov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscretizeBoundaries(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, StateDown, cfg.Discretize(-0.02))
	assert.Equal(t, StateUp, cfg.Discretize(0.02))
	assert.Equal(t, StateFlat, cfg.Discretize(0.0))
	// Returns exactly on a threshold stay Flat: strict inequality only.
	assert.Equal(t, StateFlat, cfg.Discretize(0.01))
	assert.Equal(t, StateFlat, cfg.Discretize(-0.01))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.DownThreshold = 0.01
	bad.UpThreshold = -0.01
	err := bad.Validate()
	assert.ErrorIs(t, err, ErrConfig)

	equal := cfg
	equal.DownThreshold = 0.01
	assert.ErrorIs(t, equal.Validate(), ErrConfig)

	neg := cfg
	neg.Smoothing = -0.5
	assert.ErrorIs(t, neg.Validate(), ErrConfig)
}

func TestFitFromPricesRowsSumToOne(t *testing.T) {
	m, err := FitFromPrices(DefaultConfig(), []float64{100, 101, 99, 100, 102})
	require.NoError(t, err)

	matrix := m.TransitionMatrix()
	for i := 0; i < NumStates; i++ {
		rowSum := 0.0
		for j := 0; j < NumStates; j++ {
			rowSum += matrix[i][j]
			assert.Greater(t, matrix[i][j], 0.0, "smoothing keeps every entry positive")
		}
		assert.InDelta(t, 1.0, rowSum, 1e-9)
	}
}

func TestFitFromPricesSpecExample(t *testing.T) {
	// prices [100, 101, 99, 100, 102] -> returns [0.01, -0.0198.., 0.0101.., 0.02]
	// with thresholds (-0.01, 0.01): Flat (boundary), Down, Up, Up.
	m, err := FitFromPrices(DefaultConfig(), []float64{100, 101, 99, 100, 102})
	require.NoError(t, err)

	hist := m.StateHistogram()
	assert.Equal(t, 1, hist[StateDown])
	assert.Equal(t, 1, hist[StateFlat])
	assert.Equal(t, 2, hist[StateUp])
	assert.Equal(t, StateUp, m.LastState())

	price, ok := m.LastPrice()
	require.True(t, ok)
	assert.Equal(t, 102.0, price)

	// Observed transitions: Flat->Down, Down->Up, Up->Up. With add-one
	// smoothing the Flat row is (1+1)/(1+3) for Down and 1/4 elsewhere.
	matrix := m.TransitionMatrix()
	assert.InDelta(t, 0.50, matrix[StateFlat][StateDown], 1e-12)
	assert.InDelta(t, 0.25, matrix[StateFlat][StateFlat], 1e-12)
	assert.InDelta(t, 0.25, matrix[StateFlat][StateUp], 1e-12)
	assert.InDelta(t, 0.50, matrix[StateDown][StateUp], 1e-12)
	assert.InDelta(t, 0.50, matrix[StateUp][StateUp], 1e-12)
}

func TestFitDegenerateCountsUniformRows(t *testing.T) {
	// Two returns produce one transition; rows without observations must be
	// exactly uniform under alpha=1.
	m, err := FitFromReturns(DefaultConfig(), []float64{0.0, 0.0})
	require.NoError(t, err)

	matrix := m.TransitionMatrix()
	for j := 0; j < NumStates; j++ {
		assert.InDelta(t, 1.0/3.0, matrix[StateDown][j], 1e-12)
		assert.InDelta(t, 1.0/3.0, matrix[StateUp][j], 1e-12)
	}
}

func TestFitBucketsKeyedByOriginState(t *testing.T) {
	cfg := DefaultConfig()
	returns := []float64{0.05, -0.05, 0.0}
	m, err := FitFromReturns(cfg, returns)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.05}, m.Bucket(StateUp))
	assert.Equal(t, []float64{-0.05}, m.Bucket(StateDown))
	assert.Equal(t, []float64{0.0}, m.Bucket(StateFlat))
}

func TestFitErrors(t *testing.T) {
	cfg := DefaultConfig()

	_, err := FitFromPrices(cfg, []float64{100, 101})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = FitFromPrices(cfg, []float64{100, 0, 101})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = FitFromReturns(cfg, []float64{0.01})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFitFromReturnsHasNoStartPrice(t *testing.T) {
	m, err := FitFromReturns(DefaultConfig(), []float64{0.02, -0.02, 0.005})
	require.NoError(t, err)

	_, ok := m.LastPrice()
	assert.False(t, ok)

	m2, err := m.WithLastPrice(250.0)
	require.NoError(t, err)
	price, ok := m2.LastPrice()
	require.True(t, ok)
	assert.Equal(t, 250.0, price)

	// Original model is untouched.
	_, ok = m.LastPrice()
	assert.False(t, ok)

	_, err = m.WithLastPrice(-1)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestEngineFailedFitPreservesModel(t *testing.T) {
	eng, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, eng.FitFromPrices([]float64{100, 101, 99, 100, 102}))
	before := eng.TransitionMatrix()

	err = eng.FitFromPrices([]float64{100, 0, 99})
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, before, eng.TransitionMatrix(), "failed fit must not clobber calibration")
}

func TestEngineUncalibratedAccessors(t *testing.T) {
	eng, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, [NumStates][NumStates]float64{}, eng.TransitionMatrix())
	assert.Equal(t, [NumStates]int{}, eng.StateHistogram())
	assert.ErrorIs(t, eng.SetLastPrice(100), ErrNotCalibrated)

	_, err = eng.Simulate(5, 10, 0)
	assert.ErrorIs(t, err, ErrNotCalibrated)
}
