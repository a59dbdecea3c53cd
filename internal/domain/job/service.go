package job

import (
	"context"
	"fmt"

	"github.com/honeycarbs/mixer-client/internal/cache"
	"github.com/honeycarbs/mixer-client/internal/domain"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
	"github.com/honeycarbs/mixer-client/pkg/logging"
)

type Service interface {
	// List returns the job list, served from the cache while it is fresh
	List(ctx context.Context) ([]domain.Job, error)

	// Prefetch warms the cache and never fails; on error it logs and
	// returns an empty list
	Prefetch(ctx context.Context) []domain.Job

	// Upload creates a job from file. It does not touch the cache.
	Upload(ctx context.Context, file graphql.File) (domain.Job, error)

	// Invalidate marks the cached job list stale
	Invalidate()

	// Offline reports whether the most recent list fetch failed
	Offline() bool
}

// Option configures Service
type Option func(*config)

type config struct {
	gql    *graphql.Client
	cache  *cache.Client
	logger *logging.Logger
}

// WithGraphQL sets the transport
func WithGraphQL(c *graphql.Client) Option {
	return func(cfg *config) {
		cfg.gql = c
	}
}

// WithCache sets the query cache
func WithCache(c *cache.Client) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// NewService builds Service from options
func NewService(opts ...Option) (Service, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.gql == nil {
		return nil, fmt.Errorf("job.Service: graphql client is required")
	}
	if cfg.cache == nil {
		cfg.cache = cache.New()
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}

	return &service{
		gql:    cfg.gql,
		cache:  cfg.cache,
		logger: cfg.logger.Named("jobs"),
	}, nil
}

// NewServiceWithDeps creates a Service with direct dependencies (Wire-compatible)
func NewServiceWithDeps(gql *graphql.Client, c *cache.Client, logger *logging.Logger) (Service, error) {
	return NewService(WithGraphQL(gql), WithCache(c), WithLogger(logger))
}

type service struct {
	gql    *graphql.Client
	cache  *cache.Client
	logger *logging.Logger
}

func (s *service) List(ctx context.Context) ([]domain.Job, error) {
	return cache.Fetch(ctx, s.cache, ListQuery(s.gql))
}

func (s *service) Prefetch(ctx context.Context) []domain.Job {
	jobs, err := s.List(ctx)
	if err != nil {
		s.logger.Warn("failed to prefetch jobs, the API might be offline", "err", err)
		return []domain.Job{}
	}
	return jobs
}

func (s *service) Upload(ctx context.Context, file graphql.File) (domain.Job, error) {
	job, err := UploadAudio(ctx, s.gql, file)
	if err != nil {
		return domain.Job{}, err
	}

	s.logger.Info("audio uploaded", "job_id", job.ID, "filename", job.Filename, "status", job.Status)
	return job, nil
}

func (s *service) Invalidate() {
	s.cache.Invalidate(CacheKey)
}

func (s *service) Offline() bool {
	st, ok := s.cache.State(CacheKey)
	return ok && st.Err != nil
}
