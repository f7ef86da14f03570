// Package service orchestrates the full snapshot pipeline: cache lookup,
// collection, canonicalization, enrichment, estimation, scoring, and
// calibration, with stale-while-revalidate refresh and stampede protection.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ascendly/marketsnap/internal/calibrate"
	"github.com/ascendly/marketsnap/internal/canonical"
	"github.com/ascendly/marketsnap/internal/collector"
	"github.com/ascendly/marketsnap/internal/domain"
	"github.com/ascendly/marketsnap/internal/enrich"
	"github.com/ascendly/marketsnap/internal/estimate"
	"github.com/ascendly/marketsnap/internal/score"
	"github.com/ascendly/marketsnap/internal/volume"
)

// DefaultCallBudget caps provider calls per aggregation request: one search
// call plus up to nine catalog batches.
const DefaultCallBudget = 10

// DefaultCacheTTL is the logical snapshot TTL; entries serve stale for one
// more TTL beyond it.
const DefaultCacheTTL = 6 * time.Hour

// refreshTimeout bounds a detached stale-refresh computation.
const refreshTimeout = 2 * time.Minute

// persistTimeout bounds the fire-and-forget write fan-out.
const persistTimeout = 30 * time.Second

// Publisher pushes completed-snapshot events to connected consumers.
type Publisher interface {
	Publish(event string, payload any)
}

// Options carries the Aggregator's optional collaborators and tunables.
// Store, Blobs, and Publisher may be nil; zero tunables take the defaults.
type Options struct {
	Store     domain.SnapshotStore
	Blobs     domain.BlobWriter
	Publisher Publisher
	BudgetMax int
	CacheTTL  time.Duration
}

// Aggregator computes market snapshots.
type Aggregator struct {
	collector  *collector.Collector
	builder    *canonical.Builder
	enricher   *enrich.Orchestrator
	estimator  *estimate.Estimator
	calibrator *calibrate.Calibrator

	cache     domain.SnapshotCache
	store     domain.SnapshotStore
	blobs     domain.BlobWriter
	publisher Publisher

	budgetMax int
	cacheTTL  time.Duration

	group  singleflight.Group
	clock  func() time.Time
	logger *slog.Logger
}

// NewAggregator wires the pipeline stages.
func NewAggregator(
	col *collector.Collector,
	builder *canonical.Builder,
	enricher *enrich.Orchestrator,
	estimator *estimate.Estimator,
	calibrator *calibrate.Calibrator,
	cache domain.SnapshotCache,
	opts Options,
	logger *slog.Logger,
) *Aggregator {
	if opts.BudgetMax <= 0 {
		opts.BudgetMax = DefaultCallBudget
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Aggregator{
		collector:  col,
		builder:    builder,
		enricher:   enricher,
		estimator:  estimator,
		calibrator: calibrator,
		cache:      cache,
		store:      opts.Store,
		blobs:      opts.Blobs,
		publisher:  opts.Publisher,
		budgetMax:  opts.BudgetMax,
		cacheTTL:   opts.CacheTTL,
		clock:      time.Now,
		logger:     logger.With(slog.String("component", "aggregator")),
	}
}

// SetClock overrides the time source. Test hook.
func (a *Aggregator) SetClock(clock func() time.Time) { a.clock = clock }

// Aggregate returns the market snapshot for one keyword. A cache HIT
// short-circuits the pipeline; STALE serves the old payload and refreshes in
// the background; MISS computes synchronously, with concurrent requests for
// the same key collapsed onto a single computation.
func (a *Aggregator) Aggregate(ctx context.Context, req domain.AggregateRequest) (domain.MarketSnapshot, domain.CacheStatus, error) {
	stage, err := domain.ParseSellerStage(string(req.Seller.Stage))
	if err != nil {
		return domain.MarketSnapshot{}, domain.CacheMiss, fmt.Errorf("aggregator: %w", err)
	}
	req.Seller.Stage = stage

	key := domain.SnapshotKey(req.Marketplace, "keyword", req.Keyword, 1)

	lookup, err := a.cache.Get(ctx, key)
	if err != nil {
		// A cache outage degrades to a plain compute.
		a.logger.Warn("cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		lookup.Status = domain.CacheMiss
	}

	switch lookup.Status {
	case domain.CacheHit:
		if snap, decErr := decodeSnapshot(lookup.Entry.Payload); decErr == nil {
			return snap, domain.CacheHit, nil
		}
	case domain.CacheStale:
		if snap, decErr := decodeSnapshot(lookup.Entry.Payload); decErr == nil {
			go a.refresh(key, req)
			return snap, domain.CacheStale, nil
		}
	}

	v, err, shared := a.group.Do(key, func() (any, error) {
		return a.compute(ctx, key, req)
	})
	if err != nil {
		return domain.MarketSnapshot{}, domain.CacheMiss, err
	}
	if shared {
		a.logger.Debug("inflight computation shared", slog.String("key", key))
	}
	return v.(domain.MarketSnapshot), domain.CacheMiss, nil
}

// refresh recomputes a stale entry off the request path. The original caller
// already returned; any failure here leaves the stale row to be refreshed or
// expired by a later read.
func (a *Aggregator) refresh(key string, req domain.AggregateRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	_, err, _ := a.group.Do(key, func() (any, error) {
		return a.compute(ctx, key, req)
	})
	if err != nil {
		a.logger.Warn("stale refresh failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// compute runs the full pipeline under a fresh call budget.
func (a *Aggregator) compute(ctx context.Context, key string, req domain.AggregateRequest) (domain.MarketSnapshot, error) {
	started := a.clock()
	budget := domain.NewCallBudget(a.budgetMax)

	page, err := a.collector.Collect(ctx, req.Keyword, req.Marketplace, 1, budget)
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("aggregator: %w", err)
	}

	listings := a.builder.Build(page.Rows, page.Sponsored)

	var stats enrich.Stats
	var catalogRaws [][]byte
	if len(listings) > 0 {
		stats, catalogRaws = a.enricher.Enrich(ctx, req.Marketplace, listings, budget)
	}

	demand := a.estimator.Estimate(listings)
	canonical.UpgradeBrands(listings)

	cpi := score.Compute(listings, req.Seller)
	searchVolume := volume.Estimate(req.Keyword, listings)

	unitsRange, revenueRange, warnings := a.calibrator.Calibrate(listings, demand.TotalUnits, demand.TotalRevenue, demand.Confidence)
	warnings = append(warnings, a.calibrator.Validate(listings, demand.TotalUnits)...)

	if stats.PermissionDenied {
		warnings = append(warnings, "catalog access denied: prices and fulfillment limited to search data")
	}
	if budget.Exhausted() {
		_, _, skipped := budget.Stats()
		warnings = append(warnings, fmt.Sprintf("call budget exhausted: %d calls skipped", skipped))
	}

	charged, _, skipped := budget.Stats()
	sponsoredAppearances, organicAppearances := appearanceCounts(page.Rows)

	snap := domain.MarketSnapshot{
		SnapshotID:  uuid.NewString(),
		Keyword:     domain.NormalizeQuery(req.Keyword),
		Marketplace: req.Marketplace,
		Page:        1,

		Listings: listings,

		Prices:  domain.PriceStatsOf(listings),
		Reviews: domain.ReviewStatsOf(listings),

		SponsoredAppearances: sponsoredAppearances,
		OrganicAppearances:   organicAppearances,

		Fulfillment:    fulfillmentMix(listings),
		BrandDominance: score.BrandDominance(listings),

		CPI:          cpi,
		SearchVolume: searchVolume,

		MonthlyUnits:   unitsRange,
		MonthlyRevenue: revenueRange,

		Confidence: demand.Confidence,
		Coverage: domain.CoverageStats{
			Listings:         len(listings),
			RankCoverage:     demand.RankCoverage,
			PriceCoverage:    demand.PriceCoverage,
			EnrichedListings: stats.Enriched,
			CallsCharged:     charged,
			CallsSkipped:     skipped,
		},
		Warnings: warnings,

		SchemaVersion: domain.SnapshotSchemaVersion,
		ComputedAt:    started.UTC(),
	}

	go a.persist(key, snap, page.Raw, catalogRaws)

	a.logger.Info("snapshot computed",
		slog.String("keyword", snap.Keyword),
		slog.String("marketplace", snap.Marketplace),
		slog.Int("listings", len(listings)),
		slog.Float64("cpi", cpi.Score),
		slog.Int("calls_charged", charged),
		slog.Duration("elapsed", a.clock().Sub(started)),
	)

	return snap, nil
}

// persist fans the finished snapshot out to the cache, the archive store, and
// the raw-payload blob store. Every write is best-effort: failures are logged
// and never reach the caller, who has already been answered.
func (a *Aggregator) persist(key string, snap domain.MarketSnapshot, serpRaw []byte, catalogRaws [][]byte) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	payload, err := json.Marshal(snap)
	if err != nil {
		a.logger.Error("snapshot marshal failed", slog.String("error", err.Error()))
		return
	}

	if err := a.cache.Put(ctx, key, payload, a.cacheTTL); err != nil {
		a.logger.Warn("cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	if a.store != nil {
		if err := a.store.Save(ctx, snap); err != nil {
			a.logger.Warn("snapshot archive failed",
				slog.String("snapshot_id", snap.SnapshotID),
				slog.String("error", err.Error()),
			)
		}
	}

	if a.blobs != nil {
		prefix := fmt.Sprintf("raw/%s/%s/%s", snap.Marketplace, domain.NormalizeQuery(snap.Keyword), snap.SnapshotID)
		if len(serpRaw) > 0 {
			a.writeBlob(ctx, prefix+"/serp.json", serpRaw)
		}
		for i, raw := range catalogRaws {
			a.writeBlob(ctx, fmt.Sprintf("%s/catalog-%d.json", prefix, i), raw)
		}
	}

	if a.publisher != nil {
		a.publisher.Publish("snapshot.completed", snap)
	}
}

func (a *Aggregator) writeBlob(ctx context.Context, key string, payload []byte) {
	if err := a.blobs.Write(ctx, key, payload, "application/json"); err != nil {
		a.logger.Warn("raw payload archive failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// appearanceCounts tallies per-appearance sponsored and organic rows before
// deduplication, so the sponsored count is always at least the number of
// sponsored ASINs in the canonical set.
func appearanceCounts(rows []domain.RawListing) (sponsored, organic int) {
	for i := range rows {
		if rows[i].Sponsored {
			sponsored++
		} else {
			organic++
		}
	}
	return sponsored, organic
}

// fulfillmentMix converts channel counts into whole percentages that sum to
// exactly 100: FBA and FBM round, UNKNOWN absorbs the remainder.
func fulfillmentMix(listings []domain.CanonicalListing) domain.FulfillmentMix {
	if len(listings) == 0 {
		return domain.FulfillmentMix{UnknownPct: 100}
	}

	fba, fbm := 0, 0
	for i := range listings {
		if !listings[i].Fulfillment.Present {
			continue
		}
		switch listings[i].Fulfillment.Value {
		case domain.FulfillmentFBA:
			fba++
		case domain.FulfillmentFBM:
			fbm++
		}
	}

	n := float64(len(listings))
	mix := domain.FulfillmentMix{
		FBAPct: int(math.Round(float64(fba) / n * 100)),
		FBMPct: int(math.Round(float64(fbm) / n * 100)),
	}
	mix.UnknownPct = 100 - mix.FBAPct - mix.FBMPct
	if mix.UnknownPct < 0 {
		if mix.FBAPct >= mix.FBMPct {
			mix.FBAPct += mix.UnknownPct
		} else {
			mix.FBMPct += mix.UnknownPct
		}
		mix.UnknownPct = 0
	}
	return mix
}

func decodeSnapshot(payload []byte) (domain.MarketSnapshot, error) {
	var snap domain.MarketSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("aggregator: decode cached snapshot: %w", err)
	}
	return snap, nil
}
