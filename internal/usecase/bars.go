package usecase

import (
	"context"
	"fmt"
	"time"

	"UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
	"UnslugCity/pkg/util"
)

// BarsUseCase provides business logic for retrieving bar history.
type BarsUseCase struct {
	store domrepo.BarStore
}

func NewBarsUseCase(store domrepo.BarStore) *BarsUseCase {
	return &BarsUseCase{store: store}
}

type GetBarsParams struct {
	Symbol   string
	From     time.Time
	To       time.Time
	Interval domrepo.Interval
	Limit    int
}

type GetBarsResult struct {
	Symbol   string
	Interval string
	From     time.Time
	To       time.Time
	Count    int
	Bars     []models.Bar
}

func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	from, to := util.AlignFromTo(p.From, p.To, string(p.Interval))
	bars, err := uc.store.GetBars(ctx, p.Symbol, from, to, p.Interval)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if len(bars) > p.Limit {
		bars = bars[:p.Limit]
	}

	return &GetBarsResult{
		Symbol:   p.Symbol,
		Interval: string(p.Interval),
		From:     from,
		To:       to,
		Count:    len(bars),
		Bars:     bars,
	}, nil
}
