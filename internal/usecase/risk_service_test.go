package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"FinSim/internal/domain/models"
	domrepo "FinSim/internal/domain/repository"
	"FinSim/internal/services/markov"
	pkgcache "FinSim/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePriceStore struct {
	mu     sync.Mutex
	closes []float64
	calls  int
}

func (f *fakePriceStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	return f.candles(), nil
}

func (f *fakePriceStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.candles(), nil
}

func (f *fakePriceStore) candles() []models.Candle {
	out := make([]models.Candle, len(f.closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range f.closes {
		out[i] = models.Candle{
			Bucket: base.AddDate(0, 0, i),
			Symbol: "TEST",
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}
	return out
}

type fakeMetrics struct {
	mu           sync.Mutex
	calibrations int
	simulations  int
	errors       int
}

func (f *fakeMetrics) RecordMessageSent(backend, symbol string)   {}
func (f *fakeMetrics) RecordLastPrice(symbol string, price float64) {}
func (f *fakeMetrics) RecordLatency(op string, seconds float64)   {}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	f.errors++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordCalibration(symbol string) {
	f.mu.Lock()
	f.calibrations++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordSimulation(symbol string, scenarios int) {
	f.mu.Lock()
	f.simulations++
	f.mu.Unlock()
}

func testConfig() markov.Config {
	cfg := markov.DefaultConfig()
	cfg.Seed = 42
	cfg.Workers = 1
	return cfg
}

func newTestService(closes []float64) (*RiskService, *fakePriceStore, *fakeMetrics) {
	store := &fakePriceStore{closes: closes}
	m := &fakeMetrics{}
	svc := NewRiskService(store, m, testConfig(), pkgcache.NewMemoryCache(), time.Minute)
	return svc, store, m
}

func TestCalibratePayloadFromPrices(t *testing.T) {
	svc, _, m := newTestService(nil)

	info, err := svc.CalibratePayload(context.Background(), &models.CalibrateRequest{
		Symbol: "AAPL",
		Prices: []float64{100, 101, 99, 100.0001, 102.0201},
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", info.Symbol)
	assert.Equal(t, []string{"down", "flat", "up"}, info.States)
	assert.Equal(t, 4, info.SampleSize)
	require.Len(t, info.Matrix, 3)
	for _, row := range info.Matrix {
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
	assert.True(t, info.HasLastPrice)
	assert.InDelta(t, 102.0201, info.LastPrice, 1e-9)
	assert.Equal(t, 1, m.calibrations)
}

func TestCalibratePayloadRequiresExactlyOneInput(t *testing.T) {
	svc, _, _ := newTestService(nil)
	ctx := context.Background()

	_, err := svc.CalibratePayload(ctx, &models.CalibrateRequest{Symbol: "AAPL"})
	assert.ErrorIs(t, err, markov.ErrInvalidInput)

	_, err = svc.CalibratePayload(ctx, &models.CalibrateRequest{
		Symbol:  "AAPL",
		Prices:  []float64{100, 101, 102},
		Returns: []float64{0.01, 0.02},
	})
	assert.ErrorIs(t, err, markov.ErrInvalidInput)
}

func TestCalibratePayloadFromReturnsWithLastPrice(t *testing.T) {
	svc, _, _ := newTestService(nil)

	info, err := svc.CalibratePayload(context.Background(), &models.CalibrateRequest{
		Symbol:    "AAPL",
		Returns:   []float64{0.02, -0.03, 0.001, 0.015},
		LastPrice: 250,
	})
	require.NoError(t, err)
	assert.True(t, info.HasLastPrice)
	assert.Equal(t, 250.0, info.LastPrice)
}

func TestFitFromStore(t *testing.T) {
	svc, store, m := newTestService([]float64{100, 102, 101, 103, 104, 102, 105})

	info, err := svc.Fit(context.Background(), "TEST", 250)
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, m.calibrations)
	assert.Equal(t, 6, info.SampleSize)
	assert.True(t, info.HasLastPrice)
	assert.Equal(t, 105.0, info.LastPrice)
}

func TestSimulateLazilyCalibrates(t *testing.T) {
	svc, store, m := newTestService([]float64{100, 102, 101, 103, 104, 102, 105})

	res, err := svc.Simulate(context.Background(), &models.SimulateRequest{
		Symbol:    "TEST",
		Horizon:   10,
		Scenarios: 50,
		N:         250,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, m.calibrations)
	assert.Equal(t, 1, m.simulations)
	assert.Equal(t, 50, res.Scenarios)
	assert.Equal(t, 10, res.Horizon)
	assert.Equal(t, 105.0, res.StartPrice)
	assert.Len(t, res.TerminalPrices, 50)
	assert.Len(t, res.TerminalStates, 50)
	assert.Nil(t, res.Paths)

	// second simulate reuses the calibrated engine
	_, err = svc.Simulate(context.Background(), &models.SimulateRequest{
		Symbol:    "TEST",
		Horizon:   10,
		Scenarios: 50,
		N:         250,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestSimulateIncludePaths(t *testing.T) {
	svc, _, _ := newTestService([]float64{100, 102, 101, 103, 104, 102, 105})

	res, err := svc.Simulate(context.Background(), &models.SimulateRequest{
		Symbol:       "TEST",
		Horizon:      5,
		Scenarios:    10,
		N:            250,
		IncludePaths: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Paths, 10)
	for _, p := range res.Paths {
		assert.Len(t, p, 6) // start price plus one point per step
		assert.Equal(t, res.StartPrice, p[0])
	}
}

func TestRiskReportCached(t *testing.T) {
	svc, _, m := newTestService([]float64{100, 102, 101, 103, 104, 102, 105})

	req := &models.RiskRequest{Symbol: "TEST", Horizon: 10, Scenarios: 100, N: 250}
	first, err := svc.Risk(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, m.simulations)

	second, err := svc.Risk(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, m.simulations, "second call should be served from cache")
	assert.Equal(t, first, second)

	assert.Equal(t, 105.0, first.StartPrice)
	assert.GreaterOrEqual(t, first.ProbNegReturn, 0.0)
	assert.LessOrEqual(t, first.ProbNegReturn, 1.0)
	assert.LessOrEqual(t, first.VaR5Price, first.MedianPrice)
	assert.LessOrEqual(t, first.MedianPrice, first.P95Price)
	require.NotNil(t, first.StdReturn)
	assert.GreaterOrEqual(t, *first.StdReturn, 0.0)
}

func TestRiskSingleScenarioOmitsStd(t *testing.T) {
	svc, _, _ := newTestService([]float64{100, 102, 101, 103, 104, 102, 105})

	report, err := svc.Risk(context.Background(), &models.RiskRequest{
		Symbol: "TEST", Horizon: 5, Scenarios: 1, N: 250,
	})
	require.NoError(t, err)
	assert.Nil(t, report.StdReturn)
}

func TestModelInfoNotCalibrated(t *testing.T) {
	svc, _, _ := newTestService(nil)

	_, err := svc.ModelInfo(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, markov.ErrNotCalibrated)
}

func TestModelInfoMatrixIsCopy(t *testing.T) {
	svc, _, _ := newTestService(nil)

	_, err := svc.CalibratePayload(context.Background(), &models.CalibrateRequest{
		Symbol: "AAPL",
		Prices: []float64{100, 105, 99, 104, 110},
	})
	require.NoError(t, err)

	info, err := svc.ModelInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	info.Matrix[0][0] = 99

	again, err := svc.ModelInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.NotEqual(t, 99.0, again.Matrix[0][0])
}
