package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/ascendly/marketsnap/internal/blob/s3"
	"github.com/ascendly/marketsnap/internal/cache/memory"
	"github.com/ascendly/marketsnap/internal/cache/redis"
	"github.com/ascendly/marketsnap/internal/calibrate"
	"github.com/ascendly/marketsnap/internal/canonical"
	"github.com/ascendly/marketsnap/internal/collector"
	"github.com/ascendly/marketsnap/internal/config"
	"github.com/ascendly/marketsnap/internal/domain"
	"github.com/ascendly/marketsnap/internal/enrich"
	"github.com/ascendly/marketsnap/internal/estimate"
	"github.com/ascendly/marketsnap/internal/platform/catalog"
	"github.com/ascendly/marketsnap/internal/platform/serp"
	"github.com/ascendly/marketsnap/internal/server/handler"
	"github.com/ascendly/marketsnap/internal/server/ws"
	"github.com/ascendly/marketsnap/internal/service"
	"github.com/ascendly/marketsnap/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Aggregator *service.Aggregator

	// Store is the snapshot archive; nil when postgres is not configured.
	Store domain.SnapshotStore

	// RateLimiter backs the HTTP rate-limit middleware; nil when redis is
	// not configured.
	RateLimiter domain.RateLimiter

	// Hub broadcasts completed snapshots to WebSocket subscribers.
	Hub *ws.Hub

	// Pingers lists the configured backends by name for the health endpoint.
	Pingers map[string]handler.Pinger
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Pingers: make(map[string]handler.Pinger),
	}

	// --- Providers ---
	serpClient, err := serp.NewClient(
		cfg.Providers.SerpBaseURL,
		cfg.Providers.SerpAPIKey,
		cfg.Providers.SerpTimeout.Duration,
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: serp client: %w", err)
	}

	catalogClient, err := catalog.NewClient(
		cfg.Providers.CatalogBaseURL,
		cfg.Providers.CatalogAPIKey,
		cfg.Providers.CatalogTimeout.Duration,
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: catalog client: %w", err)
	}

	// --- Cache (redis when configured, in-process otherwise) ---
	var cache domain.SnapshotCache
	if cfg.RedisEnabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		cache = redis.NewSnapshotCache(redisClient, logger)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.Pingers["redis"] = redisClient
	} else {
		logger.Warn("redis not configured, using in-process snapshot cache")
		cache = memory.NewSnapshotCache()
	}

	// --- PostgreSQL snapshot archive (optional) ---
	if cfg.Postgres.Enabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Store = postgres.NewSnapshotStore(pgClient.Pool())
		deps.Pingers["postgres"] = pgClient
	}

	// --- S3 raw-payload archive (optional) ---
	var blobs domain.BlobWriter
	if cfg.S3.Enabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		blobs = s3blob.NewWriter(s3Client)
	}

	// --- WebSocket hub ---
	deps.Hub = ws.NewHub(logger)

	// --- Aggregation pipeline ---
	col := collector.New(serpClient, logger)
	builder := canonical.NewBuilder(logger)
	enricher := enrich.New(catalogClient, cfg.Aggregation.BatchSize, cfg.Aggregation.Concurrency, logger)
	estimator := estimate.New(logger)
	calibrator := calibrate.New(logger)

	deps.Aggregator = service.NewAggregator(
		col, builder, enricher, estimator, calibrator, cache,
		service.Options{
			Store:     deps.Store,
			Blobs:     blobs,
			Publisher: deps.Hub,
			BudgetMax: cfg.Aggregation.CallBudgetMax,
			CacheTTL:  cfg.Aggregation.CacheTTL.Duration,
		},
		logger,
	)

	return deps, cleanup, nil
}
