//go:build wireinject
// +build wireinject

package di

import (
	"FinSim/pkg/config"
	"FinSim/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories (with business logic)
		ProvideTickStorage,
		ProvideTickPublisher,
		ProvideMarketStream,
		ProvidePriceStore,

		// Use cases
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaPricesHandler,
		ProvideModelConfig,
		ProvideCache,
		ProvideRiskService,
		ProvidePricesUseCase,
		ProvideReportQueue,
		ProvideBackfill,

		// HTTP
		ProvideRiskHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
