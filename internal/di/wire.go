//go:build wireinject
// +build wireinject

package di

import (
	"UnslugCity/pkg/config"
	"UnslugCity/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideBarStore,
		ProvideOutputPublisher,
		ProvideBarFetcher,

		// Scoring services
		ProvideRetraceScanner,
		ProvideFearGreedCalculator,
		ProvideOrchestrator,

		// Use cases
		ProvideScoreUseCase,
		ProvideBarsUseCase,
		ProvideBackfillUseCase,
		ProvideBatchScorer,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
