// Package enrich batches deduplicated ASINs to the secondary catalog/pricing
// provider under a shared call budget and merges returned fields into the
// canonical listings using fixed source-priority rules.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ascendly/marketsnap/internal/domain"
	"github.com/ascendly/marketsnap/internal/platform/catalog"
)

// DefaultConcurrency bounds how many catalog batches are in flight at once.
const DefaultConcurrency = 6

// Stats is the post-hoc coverage log for one enrichment run.
type Stats struct {
	Batches          int
	BatchesSkipped   int
	BatchesFailed    int
	Enriched         int
	FailedASINs      int
	PermissionDenied bool
}

// Orchestrator coordinates the enrichment stage.
type Orchestrator struct {
	provider    domain.CatalogProvider
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// New creates an Orchestrator. batchSize defaults to the provider maximum,
// concurrency to DefaultConcurrency.
func New(provider domain.CatalogProvider, batchSize, concurrency int, logger *slog.Logger) *Orchestrator {
	if batchSize <= 0 || batchSize > catalog.MaxBatchSize {
		batchSize = catalog.MaxBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		provider:    provider,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "enrichment")),
	}
}

// Enrich runs batched lookups for every listing's ASIN and merges the results
// in place. The budget is checked immediately before each batch call; an
// exhausted budget skips the batch without retrying. A failed batch is
// isolated: it never cancels siblings. A permission-denied response disables
// the capability for the rest of the request. Raw provider payloads are
// returned for the audit archiver.
func (o *Orchestrator) Enrich(ctx context.Context, marketplace string, listings []domain.CanonicalListing, budget *domain.CallBudget) (Stats, [][]byte) {
	if len(listings) == 0 {
		return Stats{}, nil
	}

	index := make(map[string]int, len(listings))
	asins := make([]string, 0, len(listings))
	for i := range listings {
		index[listings[i].ASIN] = i
		asins = append(asins, listings[i].ASIN)
	}

	var (
		mu       sync.Mutex
		stats    Stats
		raws     [][]byte
		denied   atomic.Bool
		enriched = make(map[string]struct{}, len(listings))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for start := 0; start < len(asins); start += o.batchSize {
		end := start + o.batchSize
		if end > len(asins) {
			end = len(asins)
		}
		batch := asins[start:end]

		mu.Lock()
		stats.Batches++
		mu.Unlock()

		g.Go(func() error {
			if denied.Load() {
				mu.Lock()
				stats.BatchesSkipped++
				mu.Unlock()
				return nil
			}

			if !budget.Acquire() {
				mu.Lock()
				stats.BatchesSkipped++
				mu.Unlock()
				o.logger.Warn("budget exhausted, skipping batch",
					slog.Int("batch_size", len(batch)),
				)
				return nil
			}

			res, err := o.provider.Lookup(ctx, marketplace, batch)
			if err != nil {
				mu.Lock()
				stats.BatchesFailed++
				stats.FailedASINs += len(batch)
				mu.Unlock()

				if errors.Is(err, domain.ErrPermissionDenied) {
					denied.Store(true)
					o.logger.Warn("catalog capability disabled for request",
						slog.String("error", err.Error()),
					)
					return nil
				}
				o.logger.Warn("catalog batch failed",
					slog.Int("batch_size", len(batch)),
					slog.String("error", err.Error()),
				)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			if res.Raw != nil {
				raws = append(raws, res.Raw)
			}
			for asin, item := range res.Items {
				i, ok := index[asin]
				if !ok {
					continue
				}
				merge(&listings[i], item)
				enriched[asin] = struct{}{}
			}
			stats.FailedASINs += len(res.Failed)
			return nil
		})
	}

	// Workers never return provider errors, so Wait can only surface a
	// context cancellation.
	_ = g.Wait()

	stats.Enriched = len(enriched)
	stats.PermissionDenied = denied.Load()

	charged, max, skippedCalls := budget.Stats()
	o.logger.Info("enrichment complete",
		slog.Int("batches", stats.Batches),
		slog.Int("batches_skipped", stats.BatchesSkipped),
		slog.Int("batches_failed", stats.BatchesFailed),
		slog.Int("enriched", stats.Enriched),
		slog.Int("failed_asins", stats.FailedASINs),
		slog.Int("calls_charged", charged),
		slog.Int("calls_max", max),
		slog.Int("calls_skipped", skippedCalls),
		slog.Bool("permission_denied", stats.PermissionDenied),
	)

	return stats, raws
}
