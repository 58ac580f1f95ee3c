package usecase

import (
	"context"
	"testing"
	"time"

	"FinSim/internal/domain/models"
	domrepo "FinSim/internal/domain/repository"
	pkgcache "FinSim/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPriceStore struct {
	lastN       int
	lastFrom    time.Time
	lastTo      time.Time
	lastTF      domrepo.Timeframe
	latestCalls int
}

func (r *recordingPriceStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	r.lastFrom, r.lastTo, r.lastTF = from, to, tf
	return []models.Candle{{Symbol: symbol, Bucket: from, Close: 100}}, nil
}

func (r *recordingPriceStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	r.lastN, r.lastTF = n, tf
	r.latestCalls++
	return []models.Candle{{Symbol: symbol, Close: 100}}, nil
}

func TestLatestClampsN(t *testing.T) {
	store := &recordingPriceStore{}
	uc := NewPricesUseCase(store)
	ctx := context.Background()

	_, err := uc.Latest(ctx, "AAPL", 0, domrepo.TF1d)
	require.NoError(t, err)
	assert.Equal(t, 250, store.lastN)

	_, err = uc.Latest(ctx, "AAPL", 50000, domrepo.TF1d)
	require.NoError(t, err)
	assert.Equal(t, 10000, store.lastN)

	_, err = uc.Latest(ctx, "", 10, domrepo.TF1d)
	assert.Error(t, err)
}

func TestRangeAlignsToTimeframe(t *testing.T) {
	store := &recordingPriceStore{}
	uc := NewPricesUseCase(store)

	from := time.Date(2025, 3, 1, 10, 17, 42, 0, time.UTC)
	to := time.Date(2025, 3, 2, 14, 3, 9, 0, time.UTC)
	res, err := uc.Range(context.Background(), "AAPL", from, to, domrepo.TF1h)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), store.lastFrom)
	assert.Equal(t, time.Date(2025, 3, 2, 14, 0, 0, 0, time.UTC), store.lastTo)
	assert.Equal(t, "1h", res.Timeframe)
	assert.Equal(t, 1, res.Count)
}

func TestLatestServedFromCache(t *testing.T) {
	store := &recordingPriceStore{}
	uc := NewPricesUseCase(store)
	uc.SetCache(pkgcache.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	first, err := uc.Latest(ctx, "AAPL", 10, domrepo.TF1d)
	require.NoError(t, err)

	second, err := uc.Latest(ctx, "AAPL", 10, domrepo.TF1d)
	require.NoError(t, err)

	assert.Equal(t, 1, store.latestCalls)
	assert.Equal(t, first, second)

	// Different parameters bypass the cached entry.
	_, err = uc.Latest(ctx, "AAPL", 20, domrepo.TF1d)
	require.NoError(t, err)
	assert.Equal(t, 2, store.latestCalls)
}

func TestRangeRejectsInvertedWindow(t *testing.T) {
	uc := NewPricesUseCase(&recordingPriceStore{})

	now := time.Now()
	_, err := uc.Range(context.Background(), "AAPL", now, now.Add(-time.Hour), domrepo.TF1d)
	assert.Error(t, err)
}
