package app

import (
	"net/http"

	"github.com/honeycarbs/mixer-client/internal/cache"
	"github.com/honeycarbs/mixer-client/internal/config"
	"github.com/honeycarbs/mixer-client/internal/domain/job"
	"github.com/honeycarbs/mixer-client/internal/export"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
	"github.com/honeycarbs/mixer-client/pkg/logging"
)

// App holds the long-lived client resources shared by every command
type App struct {
	Config   config.Config
	Logger   *logging.Logger
	GraphQL  *graphql.Client
	Cache    *cache.Client
	Jobs     job.Service
	Exporter *export.SheetsExporter
}

// provideHTTPClient applies the configured timeout; uploads of large files
// need it generous
func provideHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTPTimeout}
}

// provideGraphQLConfig resolves the endpoint from config
func provideGraphQLConfig(cfg config.Config, httpClient *http.Client, logger *logging.Logger) (graphql.Config, error) {
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return graphql.Config{}, err
	}

	return graphql.Config{
		Endpoint:   endpoint,
		HTTPClient: httpClient,
		Logger:     logger,
	}, nil
}

func provideCache(logger *logging.Logger) *cache.Client {
	return cache.New(cache.WithLogger(logger))
}
