package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
)

type fakeBarStore struct {
	series map[string][]models.Bar
}

func (f *fakeBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, iv domrepo.Interval) ([]models.Bar, error) {
	return f.series[symbol], nil
}

func (f *fakeBarStore) GetLatestNBars(ctx context.Context, symbol string, n int, iv domrepo.Interval) ([]models.Bar, error) {
	s, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("no data for %s", symbol)
	}
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s, nil
}

func (f *fakeBarStore) StoreBars(ctx context.Context, bars []models.Bar) error { return nil }
func (f *fakeBarStore) Health(ctx context.Context) error                       { return nil }
func (f *fakeBarStore) Close() error                                           { return nil }

type fakePublisher struct {
	mu   sync.Mutex
	outs []models.OrganismOutput
}

func (f *fakePublisher) Publish(ctx context.Context, out models.OrganismOutput) error {
	return f.PublishBatch(ctx, []models.OrganismOutput{out})
}

func (f *fakePublisher) PublishBatch(ctx context.Context, outs []models.OrganismOutput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outs = append(f.outs, outs...)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (f *fakeMetrics) RecordOutputPublished(organism, symbol string) {}
func (f *fakeMetrics) RecordTrust(organism, symbol string, trust float64) {}
func (f *fakeMetrics) RecordLatency(op string, seconds float64)       {}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errors == nil {
		f.errors = map[string]int{}
	}
	f.errors[kind]++
}

func symbolBars(symbol string, n int) []models.Bar {
	bars := flatBars(n, 100, 2e6)
	for i := range bars {
		bars[i].Symbol = symbol
	}
	return bars
}

func TestScoreSymbolsBatch(t *testing.T) {
	store := &fakeBarStore{series: map[string][]models.Bar{
		"AAA": symbolBars("AAA", 60),
		"BBB": symbolBars("BBB", 60),
	}}
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	b := NewBatchScorer(store, newTestOrchestrator(t), pub, m, nil, WithWorkers(2))

	res, err := b.ScoreSymbols(context.Background(), []string{"AAA", "BBB", "MISSING"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Scored != 2 {
		t.Fatalf("scored = %d, want 2", res.Scored)
	}
	if len(res.Failed) != 1 || res.Failed["MISSING"] == "" {
		t.Fatalf("expected MISSING to fail, got %v", res.Failed)
	}
	if res.Published != 6 {
		t.Fatalf("published = %d, want 6 (3 organisms x 2 symbols)", res.Published)
	}
	if len(pub.outs) != 6 {
		t.Fatalf("publisher received %d outputs, want 6", len(pub.outs))
	}
	if m.errors["fetch"] != 1 {
		t.Fatalf("fetch errors = %d, want 1", m.errors["fetch"])
	}

	bySymbol := map[string]int{}
	for _, out := range pub.outs {
		bySymbol[out.Symbol]++
	}
	if bySymbol["AAA"] != 3 || bySymbol["BBB"] != 3 {
		t.Fatalf("uneven outputs per symbol: %v", bySymbol)
	}
}

func TestScoreSymbolsRequiresSymbols(t *testing.T) {
	b := NewBatchScorer(&fakeBarStore{}, newTestOrchestrator(t), nil, &fakeMetrics{}, nil)
	if _, err := b.ScoreSymbols(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty symbol list")
	}
}

func TestScoreSymbolsWithoutPublisher(t *testing.T) {
	store := &fakeBarStore{series: map[string][]models.Bar{
		"AAA": symbolBars("AAA", 60),
	}}
	b := NewBatchScorer(store, newTestOrchestrator(t), nil, &fakeMetrics{}, nil)

	res, err := b.ScoreSymbols(context.Background(), []string{"AAA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Scored != 1 {
		t.Fatalf("scored = %d, want 1", res.Scored)
	}
}
