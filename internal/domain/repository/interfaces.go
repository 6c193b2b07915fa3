package repository

import (
	"context"
	"time"

	"UnslugCity/internal/domain/models"
)

// BarStore provides read access to historical OHLCV bars for scoring and
// write access for the backfill path. Implementations own validation of
// the series contract (ascending timestamps, positive OHLC, low ≤ close ≤ high).
type BarStore interface {
	GetBars(ctx context.Context, symbol string, from, to time.Time, iv Interval) ([]models.Bar, error)
	GetLatestNBars(ctx context.Context, symbol string, n int, iv Interval) ([]models.Bar, error)
	StoreBars(ctx context.Context, bars []models.Bar) error
	Health(ctx context.Context) error
	Close() error
}

// Publisher delivers scored organism outputs to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, out models.OrganismOutput) error
	PublishBatch(ctx context.Context, outs []models.OrganismOutput) error
	Close() error
}

// Metrics records operational measurements of the scoring pipeline.
type Metrics interface {
	RecordOutputPublished(organism, symbol string)
	RecordError(kind string)
	RecordTrust(organism, symbol string, trust float64)
	RecordLatency(op string, seconds float64)
}
