package usecase

import (
	"context"
	"fmt"
	"time"

	"UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
	applogger "UnslugCity/pkg/logger"
)

// BarFetcher pulls raw daily history from an upstream source.
type BarFetcher interface {
	FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error)
}

// BackfillUseCase pulls history for the configured symbols and persists
// it. Meant to run on startup and then periodically.
type BackfillUseCase struct {
	fetcher BarFetcher
	store   domrepo.BarStore
	metrics domrepo.Metrics
	l       *applogger.Logger
	years   int
}

func NewBackfillUseCase(fetcher BarFetcher, store domrepo.BarStore, metrics domrepo.Metrics, l *applogger.Logger) *BackfillUseCase {
	return &BackfillUseCase{
		fetcher: fetcher,
		store:   store,
		metrics: metrics,
		l:       l,
		years:   8,
	}
}

// SetYears overrides how far back history is fetched.
func (uc *BackfillUseCase) SetYears(years int) {
	if years > 0 {
		uc.years = years
	}
}

// Backfill fetches and stores daily bars for each symbol. Per-symbol
// failures are collected; the returned error is non-nil only when every
// symbol failed.
func (uc *BackfillUseCase) Backfill(ctx context.Context, symbols []string) (map[string]int, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols required")
	}

	to := time.Now().UTC()
	from := to.AddDate(-uc.years, 0, 0)

	stored := make(map[string]int, len(symbols))
	failures := 0
	for _, symbol := range symbols {
		bars, err := uc.fetcher.FetchDaily(ctx, symbol, from, to)
		if err != nil {
			failures++
			uc.metrics.RecordError("backfill_fetch")
			if uc.l != nil {
				uc.l.Error("backfill fetch failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		if err := uc.store.StoreBars(ctx, bars); err != nil {
			failures++
			uc.metrics.RecordError("backfill_store")
			if uc.l != nil {
				uc.l.Error("backfill store failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		stored[symbol] = len(bars)
	}

	if failures == len(symbols) {
		return nil, fmt.Errorf("backfill failed for all %d symbols", len(symbols))
	}
	return stored, nil
}
