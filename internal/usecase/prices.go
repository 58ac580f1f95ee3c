package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"FinSim/internal/domain/models"
	domrepo "FinSim/internal/domain/repository"
	pkgcache "FinSim/pkg/cache"
	xutil "FinSim/pkg/util"
)

// PricesUseCase provides business logic for retrieving stored price history.
type PricesUseCase struct {
	store    domrepo.PriceStore
	cache    pkgcache.Service
	cacheTTL time.Duration
}

func NewPricesUseCase(store domrepo.PriceStore) *PricesUseCase {
	return &PricesUseCase{store: store}
}

// SetCache enables response caching for candle queries. Results are stored as
// JSON strings so any Service implementation can hold them.
func (uc *PricesUseCase) SetCache(c pkgcache.Service, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	uc.cache = c
	uc.cacheTTL = ttl
}

type GetPricesResult struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Count     int             `json:"count"`
	Candles   []models.Candle `json:"candles"`
}

// Latest returns the most recent n candles in ascending order.
func (uc *PricesUseCase) Latest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (*GetPricesResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 250
	}
	if n > 10000 {
		n = 10000
	}

	key := pkgcache.GenerateKeyWithParams("prices:latest", symbol, string(tf), n)
	if res, ok := uc.cached(ctx, key); ok {
		return res, nil
	}

	candles, err := uc.store.GetLatestNCandles(ctx, symbol, n, tf)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}

	res := &GetPricesResult{
		Symbol:    symbol,
		Timeframe: string(tf),
		Count:     len(candles),
		Candles:   candles,
	}
	uc.remember(ctx, key, res)
	return res, nil
}

// Range returns candles between from and to, aligned to timeframe boundaries.
func (uc *PricesUseCase) Range(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) (*GetPricesResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !to.After(from) {
		return nil, fmt.Errorf("from must precede to")
	}
	from, to = xutil.AlignFromTo(from, to, string(tf))

	key := pkgcache.GenerateKeyWithParams("prices:range", symbol, string(tf), from.Unix(), to.Unix())
	if res, ok := uc.cached(ctx, key); ok {
		return res, nil
	}

	candles, err := uc.store.GetCandles(ctx, symbol, from, to, tf)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}

	res := &GetPricesResult{
		Symbol:    symbol,
		Timeframe: string(tf),
		Count:     len(candles),
		Candles:   candles,
	}
	uc.remember(ctx, key, res)
	return res, nil
}

func (uc *PricesUseCase) cached(ctx context.Context, key string) (*GetPricesResult, bool) {
	if uc.cache == nil {
		return nil, false
	}
	raw, err := uc.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var res GetPricesResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, false
	}
	return &res, true
}

func (uc *PricesUseCase) remember(ctx context.Context, key string, res *GetPricesResult) {
	if uc.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	_ = uc.cache.Set(ctx, key, string(b), uc.cacheTTL)
}
