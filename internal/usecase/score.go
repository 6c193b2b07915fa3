package usecase

import (
	"context"
	"fmt"
	"time"

	"UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
	domsvc "UnslugCity/internal/domain/service"
	"UnslugCity/internal/services/feargreed"
	"UnslugCity/internal/services/retrace"
)

const (
	defaultLookbackBars = 600
	scoreTimeout        = 10 * time.Second
)

// ScoreUseCase fetches history for a symbol and runs the scoring core
// over it. All I/O happens here; the organisms themselves stay pure.
type ScoreUseCase struct {
	store   domrepo.BarStore
	orch    domsvc.Orchestrator
	fg      *feargreed.Calculator
	scanner *retrace.Scanner
	timeout time.Duration
}

func NewScoreUseCase(
	store domrepo.BarStore,
	orch domsvc.Orchestrator,
	fg *feargreed.Calculator,
	scanner *retrace.Scanner,
) *ScoreUseCase {
	return &ScoreUseCase{
		store:   store,
		orch:    orch,
		fg:      fg,
		scanner: scanner,
		timeout: scoreTimeout,
	}
}

type ScoreParams struct {
	Symbol   string
	N        int
	Interval domrepo.Interval
}

func (p *ScoreParams) normalize() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = defaultLookbackBars
	}
	if p.Interval == "" {
		p.Interval = domrepo.DefaultInterval()
	}
	return nil
}

func (uc *ScoreUseCase) fetch(ctx context.Context, p ScoreParams) ([]models.Bar, error) {
	series, err := uc.store.GetLatestNBars(ctx, p.Symbol, p.N, p.Interval)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	return series, nil
}

// AllOrganismsResult carries one full scoring pass for a symbol.
type AllOrganismsResult struct {
	Symbol    string                                        `json:"symbol"`
	Interval  string                                        `json:"interval"`
	Bars      int                                           `json:"bars"`
	Timestamp time.Time                                     `json:"timestamp"`
	Results   map[models.OrganismType]models.OrganismOutput `json:"results"`
}

func (uc *ScoreUseCase) GetAllOrganisms(ctx context.Context, p ScoreParams) (*AllOrganismsResult, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	series, err := uc.fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	results, err := uc.orch.ComputeAll(ctx, series)
	if err != nil {
		return nil, err
	}

	ts := time.Now()
	if len(series) > 0 {
		ts = series[len(series)-1].Ts
	}
	return &AllOrganismsResult{
		Symbol:    p.Symbol,
		Interval:  string(p.Interval),
		Bars:      len(series),
		Timestamp: ts,
		Results:   results,
	}, nil
}

func (uc *ScoreUseCase) GetOrganism(ctx context.Context, ot models.OrganismType, p ScoreParams) (*models.OrganismOutput, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	series, err := uc.fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	out, err := uc.orch.ComputeOne(ctx, ot, series)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FearGreedResult pairs the composite with its request context.
type FearGreedResult struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Bars     int              `json:"bars"`
	Result   feargreed.Result `json:"result"`
}

func (uc *ScoreUseCase) GetFearGreed(ctx context.Context, p ScoreParams, envAdj float64) (*FearGreedResult, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	series, err := uc.fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	return &FearGreedResult{
		Symbol:   p.Symbol,
		Interval: string(p.Interval),
		Bars:     len(series),
		Result:   uc.fg.CalculateEnv(series, envAdj),
	}, nil
}

// RetraceResult pairs a scan with its request context.
type RetraceResult struct {
	Symbol   string         `json:"symbol"`
	Interval string         `json:"interval"`
	Bars     int            `json:"bars"`
	Result   retrace.Result `json:"result"`
}

func (uc *ScoreUseCase) GetRetrace(ctx context.Context, p ScoreParams) (*RetraceResult, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	series, err := uc.fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	return &RetraceResult{
		Symbol:   p.Symbol,
		Interval: string(p.Interval),
		Bars:     len(series),
		Result:   uc.scanner.Scan(series),
	}, nil
}
