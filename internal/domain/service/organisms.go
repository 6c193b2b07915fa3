package service

import (
	"context"

	"UnslugCity/internal/domain/models"
)

// Organism scores one analytical lens over a bar series.
type Organism interface {
	Type() models.OrganismType
	Score(ctx context.Context, series []models.Bar) (models.OrganismOutput, error)
}

// Orchestrator dispatches organisms over an input series.
type Orchestrator interface {
	ComputeOne(ctx context.Context, t models.OrganismType, series []models.Bar) (models.OrganismOutput, error)
	ComputeAll(ctx context.Context, series []models.Bar) (map[models.OrganismType]models.OrganismOutput, error)
}
