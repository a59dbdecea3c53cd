//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/honeycarbs/mixer-client/internal/config"
	"github.com/honeycarbs/mixer-client/internal/domain/job"
	"github.com/honeycarbs/mixer-client/internal/export"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
	"github.com/honeycarbs/mixer-client/pkg/logging"
)

// InitializeApp creates App with all resources wired up
func InitializeApp(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	wire.Build(
		// Transport
		provideHTTPClient,
		provideGraphQLConfig,
		graphql.NewClient,

		// Cache + data access
		provideCache,
		job.NewServiceWithDeps,

		// Export
		export.NewSheetsExporter,

		wire.Struct(new(App), "*"),
	)

	return &App{}, nil
}
