package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ascendly/marketsnap/internal/domain"
	"github.com/ascendly/marketsnap/internal/server"
	"github.com/ascendly/marketsnap/internal/server/handler"
)

// shutdownTimeout bounds the graceful HTTP shutdown on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// ServeMode runs the HTTP + WebSocket API until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Int("port", a.cfg.Server.Port),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Hub.Run(ctx)
	})

	health := handler.NewHealthHandler(a.logger)
	for name, p := range deps.Pingers {
		health.Register(name, p)
	}

	handlers := server.Handlers{
		Health:   health,
		Snapshot: handler.NewSnapshotHandler(deps.Aggregator, deps.Store, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, deps.Hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})

	return g.Wait()
}

// OnceMode computes a single snapshot for the configured keyword, prints it
// to stdout as JSON, and exits.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	stage, err := domain.ParseSellerStage(a.cfg.Once.SellerStage)
	if err != nil {
		return fmt.Errorf("once mode: %w", err)
	}

	req := domain.AggregateRequest{
		Keyword:     a.cfg.Once.Keyword,
		Marketplace: a.cfg.Once.Marketplace,
		Seller: domain.SellerContext{
			Stage:            stage,
			ExperienceMonths: a.cfg.Once.ExperienceMonths,
		},
	}

	a.logger.InfoContext(ctx, "computing single snapshot",
		slog.String("keyword", req.Keyword),
		slog.String("marketplace", req.Marketplace),
	)

	snap, status, err := deps.Aggregator.Aggregate(ctx, req)
	if err != nil {
		return fmt.Errorf("once mode: %w", err)
	}

	a.logger.InfoContext(ctx, "snapshot computed",
		slog.String("snapshot_id", snap.SnapshotID),
		slog.String("cache", string(status)),
		slog.Int("listings", len(snap.Listings)),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("once mode: encode snapshot: %w", err)
	}

	return nil
}
