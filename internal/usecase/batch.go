package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
	domsvc "UnslugCity/internal/domain/service"
	applogger "UnslugCity/pkg/logger"
)

// BatchScorer scores many symbols with a bounded worker pool, publishing
// the resulting organism outputs downstream. Symbols are independent;
// one symbol's fetch or publish failure never stops the batch.
type BatchScorer struct {
	store    domrepo.BarStore
	orch     domsvc.Orchestrator
	pub      domrepo.Publisher
	metrics  domrepo.Metrics
	l        *applogger.Logger
	workers  int
	lookback int
	interval domrepo.Interval
}

type BatchScorerOption func(*BatchScorer)

func WithWorkers(n int) BatchScorerOption {
	return func(b *BatchScorer) {
		if n > 0 {
			b.workers = n
		}
	}
}

func WithLookback(n int) BatchScorerOption {
	return func(b *BatchScorer) {
		if n > 0 {
			b.lookback = n
		}
	}
}

func WithInterval(iv domrepo.Interval) BatchScorerOption {
	return func(b *BatchScorer) { b.interval = iv }
}

func NewBatchScorer(
	store domrepo.BarStore,
	orch domsvc.Orchestrator,
	pub domrepo.Publisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...BatchScorerOption,
) *BatchScorer {
	b := &BatchScorer{
		store:    store,
		orch:     orch,
		pub:      pub,
		metrics:  metrics,
		l:        l,
		workers:  4,
		lookback: 600,
		interval: domrepo.IV1d,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	Scored    int
	Published int
	Failed    map[string]string
	Elapsed   time.Duration
}

// ScoreSymbols fetches history for each symbol, runs every organism over
// it, and publishes the outputs. Per-symbol failures are collected into
// the result rather than returned.
func (b *BatchScorer) ScoreSymbols(ctx context.Context, symbols []string) (*BatchResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols required")
	}

	start := time.Now()
	res := &BatchResult{Failed: map[string]string{}}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := b.workers
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				outs, err := b.scoreOne(ctx, symbol)
				mu.Lock()
				if err != nil {
					res.Failed[symbol] = err.Error()
				} else {
					res.Scored++
					res.Published += len(outs)
				}
				mu.Unlock()
			}
		}()
	}

	for _, s := range symbols {
		select {
		case jobs <- s:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	res.Elapsed = time.Since(start)
	if len(res.Failed) == 0 {
		res.Failed = nil
	}
	if b.l != nil {
		b.l.Info("batch scoring finished",
			applogger.Int("symbols", len(symbols)),
			applogger.Int("scored", res.Scored),
			applogger.Int("published", res.Published),
			applogger.Duration("elapsed", res.Elapsed),
		)
	}
	return res, nil
}

func (b *BatchScorer) scoreOne(ctx context.Context, symbol string) ([]models.OrganismOutput, error) {
	fetchStart := time.Now()
	series, err := b.store.GetLatestNBars(ctx, symbol, b.lookback, b.interval)
	if err != nil {
		b.metrics.RecordError("fetch")
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	b.metrics.RecordLatency("fetch", time.Since(fetchStart).Seconds())

	if len(series) == 0 {
		b.metrics.RecordError("empty_series")
		return nil, fmt.Errorf("no history for %s", symbol)
	}

	scoreStart := time.Now()
	results, err := b.orch.ComputeAll(ctx, series)
	if err != nil {
		b.metrics.RecordError("score")
		return nil, fmt.Errorf("score: %w", err)
	}
	b.metrics.RecordLatency("score", time.Since(scoreStart).Seconds())

	outs := make([]models.OrganismOutput, 0, len(results))
	for _, ot := range models.AllOrganisms() {
		out, ok := results[ot]
		if !ok {
			continue
		}
		b.metrics.RecordTrust(string(ot), symbol, out.Trust)
		outs = append(outs, out)
	}

	if b.pub != nil {
		if err := b.pub.PublishBatch(ctx, outs); err != nil {
			b.metrics.RecordError("publish")
			return nil, fmt.Errorf("publish: %w", err)
		}
		for _, out := range outs {
			b.metrics.RecordOutputPublished(string(out.Organism), out.Symbol)
		}
	}
	return outs, nil
}
