package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"UnslugCity/internal/domain/models"
	domsvc "UnslugCity/internal/domain/service"
	applogger "UnslugCity/pkg/logger"
)

var (
	// ErrEmptySeries rejects an empty input series outright. A short
	// series degrades to a neutral output, an empty one is a caller bug.
	ErrEmptySeries = errors.New("input series is empty")

	// ErrUnknownOrganism rejects identifiers outside the supported set.
	ErrUnknownOrganism = errors.New("unknown organism")
)

// OrganismOrchestrator dispatches scoring requests across the registered
// organisms. Compute-all contains per-organism failures: a panicking or
// erroring organism yields a zero-trust output with an error explain
// entry instead of aborting its siblings.
type OrganismOrchestrator struct {
	organisms map[models.OrganismType]domsvc.Organism
	l         *applogger.Logger
}

var _ domsvc.Orchestrator = (*OrganismOrchestrator)(nil)

func NewOrganismOrchestrator(l *applogger.Logger, organisms ...domsvc.Organism) *OrganismOrchestrator {
	m := make(map[models.OrganismType]domsvc.Organism, len(organisms))
	for _, o := range organisms {
		m[o.Type()] = o
	}
	return &OrganismOrchestrator{organisms: m, l: l}
}

// ComputeOne scores a single organism. Unknown identifiers and empty
// series are hard errors; computation failures inside a known organism
// are contained into a zero-trust output.
func (orc *OrganismOrchestrator) ComputeOne(ctx context.Context, ot models.OrganismType, series []models.Bar) (models.OrganismOutput, error) {
	org, ok := orc.organisms[ot]
	if !ok {
		return models.OrganismOutput{}, fmt.Errorf("%w: %s", ErrUnknownOrganism, ot)
	}
	if len(series) == 0 {
		return models.OrganismOutput{}, ErrEmptySeries
	}
	return orc.scoreContained(ctx, org, series), nil
}

// ComputeAll scores every registered organism concurrently and merges
// the results by organism identifier.
func (orc *OrganismOrchestrator) ComputeAll(ctx context.Context, series []models.Bar) (map[models.OrganismType]models.OrganismOutput, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}

	type item struct {
		ot  models.OrganismType
		out models.OrganismOutput
	}
	ch := make(chan item, len(orc.organisms))
	var wg sync.WaitGroup

	for ot, org := range orc.organisms {
		wg.Add(1)
		go func(ot models.OrganismType, org domsvc.Organism) {
			defer wg.Done()
			ch <- item{ot, orc.scoreContained(ctx, org, series)}
		}(ot, org)
	}

	go func() { wg.Wait(); close(ch) }()

	results := make(map[models.OrganismType]models.OrganismOutput, len(orc.organisms))
	for it := range ch {
		results[it.ot] = it.out
	}
	return results, nil
}

// scoreContained runs one organism and converts any error or panic into
// a zero-trust output carrying an error explain entry.
func (orc *OrganismOrchestrator) scoreContained(ctx context.Context, org domsvc.Organism, series []models.Bar) (out models.OrganismOutput) {
	defer func() {
		if r := recover(); r != nil {
			if orc.l != nil {
				orc.l.Error("organism panicked",
					applogger.String("organism", string(org.Type())),
					applogger.Any("panic", r),
				)
			}
			out = errorOutput(org.Type(), series, fmt.Sprintf("panic: %v", r))
		}
	}()

	out, err := org.Score(ctx, series)
	if err != nil {
		if orc.l != nil {
			orc.l.Error("organism scoring failed",
				applogger.String("organism", string(org.Type())),
				applogger.Error(err),
			)
		}
		out = errorOutput(org.Type(), series, err.Error())
	}
	return out
}

func errorOutput(ot models.OrganismType, series []models.Bar, msg string) models.OrganismOutput {
	symbol := "UNKNOWN"
	ts := time.Time{}
	if len(series) > 0 {
		symbol = series[len(series)-1].Symbol
		ts = series[len(series)-1].Ts
	}
	return models.OrganismOutput{
		Organism: ot,
		Symbol:   symbol,
		Ts:       ts,
		Signal:   models.SignalNeutral,
		Trust:    0.0,
		Explain: []models.ExplainEntry{{
			Name:         "error",
			Value:        msg,
			Contribution: models.DecreasesTrust,
		}},
	}
}
