package usecase

import (
	"context"
	"time"

	drepo "FinSim/internal/domain/repository"
	"FinSim/internal/service/pricefeed"
	applogger "FinSim/pkg/logger"
)

// Backfill seeds storage with daily history so calibration works before the
// live stream has accumulated enough ticks.
type Backfill struct {
	hist    *pricefeed.HistoryClient
	store   drepo.Storage
	symbols []string
	days    int
	l       *applogger.Logger
}

func NewBackfill(hist *pricefeed.HistoryClient, store drepo.Storage, symbols []string, days int, l *applogger.Logger) *Backfill {
	if days <= 0 {
		days = 365
	}
	return &Backfill{hist: hist, store: store, symbols: symbols, days: days, l: l}
}

// Run fetches and stores history for every configured symbol. Failures are
// logged per symbol; one bad symbol does not abort the rest.
func (b *Backfill) Run(ctx context.Context) error {
	to := time.Now()
	from := to.AddDate(0, 0, -b.days)

	for _, symbol := range b.symbols {
		ticks, err := b.hist.DailyCloses(ctx, symbol, from, to)
		if err != nil {
			if b.l != nil {
				b.l.Warn("backfill fetch failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		if err := b.store.StoreBatch(ctx, ticks); err != nil {
			if b.l != nil {
				b.l.Warn("backfill store failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		if b.l != nil {
			b.l.Info("backfill complete",
				applogger.String("symbol", symbol),
				applogger.Int("ticks", len(ticks)),
			)
		}
	}
	return nil
}
