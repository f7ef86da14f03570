package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendly/marketsnap/internal/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strp(s string) *string     { return &s }
func floatp(f float64) *float64 { return &f }

// fakeCatalog serves canned items and records batch calls.
type fakeCatalog struct {
	mu    sync.Mutex
	calls [][]string
	items map[string]domain.CatalogItem
	errs  map[string]error // keyed by first ASIN of the batch
}

func (f *fakeCatalog) Lookup(_ context.Context, _ string, asins []string) (domain.CatalogResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, asins)
	f.mu.Unlock()

	if err, ok := f.errs[asins[0]]; ok {
		return domain.CatalogResult{}, err
	}

	out := domain.CatalogResult{Items: map[string]domain.CatalogItem{}, Raw: []byte("{}")}
	for _, asin := range asins {
		if item, ok := f.items[asin]; ok {
			out.Items[asin] = item
		} else {
			out.Failed = append(out.Failed, domain.CatalogFailure{ASIN: asin, Reason: "not in catalog"})
		}
	}
	return out, nil
}

func listing(asin string) domain.CanonicalListing {
	return domain.CanonicalListing{
		ASIN:        asin,
		Title:       domain.UnavailableField[string](),
		Brand:       domain.UnavailableField[string](),
		Image:       domain.UnavailableField[string](),
		Category:    domain.UnavailableField[string](),
		Rank:        domain.UnavailableField[domain.BSR](),
		Price:       domain.UnavailableField[float64](),
		Fulfillment: domain.UnavailableField[domain.FulfillmentChannel](),
	}
}

func listingsOf(n int) []domain.CanonicalListing {
	out := make([]domain.CanonicalListing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, listing(fmt.Sprintf("B%09d", i)))
	}
	return out
}

func TestEnrich_MergesAuthoritativeFields(t *testing.T) {
	fba := string(domain.FulfillmentFBA)
	provider := &fakeCatalog{items: map[string]domain.CatalogItem{
		"B000000000": {
			ASIN:        "B000000000",
			Title:       strp("Garlic Press Pro"),
			Brand:       strp("PressCo"),
			Price:       floatp(21.99),
			Fulfillment: &fba,
			Ranks: []domain.CatalogRank{
				{Rank: 812, Category: "Home & Kitchen"},
			},
		},
	}}

	listings := listingsOf(1)
	o := New(provider, 10, 2, discard())
	stats, raws := o.Enrich(context.Background(), "us", listings, domain.NewCallBudget(10))

	assert.Equal(t, 1, stats.Enriched)
	assert.Len(t, raws, 1)

	l := listings[0]
	assert.Equal(t, "Garlic Press Pro", l.Title.Value)
	assert.True(t, l.Title.Locked())
	assert.Equal(t, domain.BSR{Rank: 812, Category: "Home & Kitchen"}, l.Rank.Value)
	assert.Equal(t, domain.FulfillmentFBA, l.Fulfillment.Value)
	assert.Equal(t, domain.BrandCanonical, l.BrandInfo.Status)
	assert.Equal(t, domain.BrandSourceSecondary, l.BrandInfo.Source)
}

func TestEnrich_BSRNoneStaysUnavailable(t *testing.T) {
	// Catalog hit with no category-scoped rank: the rank field must stay
	// unavailable, never a guessed number.
	provider := &fakeCatalog{items: map[string]domain.CatalogItem{
		"B000000000": {ASIN: "B000000000", Title: strp("Widget"), Ranks: []domain.CatalogRank{{Rank: 55}}},
	}}

	listings := listingsOf(1)
	New(provider, 10, 2, discard()).Enrich(context.Background(), "us", listings, domain.NewCallBudget(10))

	assert.False(t, listings[0].Rank.Present)
	assert.Equal(t, domain.SourceUnavailable, listings[0].Rank.Source)
}

func TestEnrich_LockedFieldNeverOverwritten(t *testing.T) {
	provider := &fakeCatalog{items: map[string]domain.CatalogItem{
		"B000000000": {ASIN: "B000000000", Price: floatp(5.00)},
	}}

	listings := listingsOf(1)
	listings[0].Price = domain.NewField(19.99, domain.SourceSecondary, domain.ConfidenceHigh)

	New(provider, 10, 2, discard()).Enrich(context.Background(), "us", listings, domain.NewCallBudget(10))

	assert.InDelta(t, 19.99, listings[0].Price.Value, 1e-9)
	assert.Equal(t, domain.ConfidenceHigh, listings[0].Price.Confidence)
}

func TestEnrich_InferredFieldFreelyOverwritten(t *testing.T) {
	provider := &fakeCatalog{items: map[string]domain.CatalogItem{
		"B000000000": {ASIN: "B000000000", Price: floatp(5.00)},
	}}

	listings := listingsOf(1)
	listings[0].Price = domain.NewField(7.77, domain.SourceInferred, domain.ConfidenceLow)

	New(provider, 10, 2, discard()).Enrich(context.Background(), "us", listings, domain.NewCallBudget(10))

	assert.InDelta(t, 5.00, listings[0].Price.Value, 1e-9)
	assert.Equal(t, domain.SourceSecondary, listings[0].Price.Source)
}

func TestEnrich_ExhaustedBudgetSkipsAllBatches(t *testing.T) {
	provider := &fakeCatalog{}
	listings := listingsOf(25) // 3 batches of 10

	budget := domain.NewCallBudget(7)
	for i := 0; i < 7; i++ {
		require.True(t, budget.Acquire())
	}

	stats, _ := New(provider, 10, 4, discard()).Enrich(context.Background(), "us", listings, budget)

	assert.Empty(t, provider.calls, "no network call may be issued on an exhausted budget")
	assert.Equal(t, 3, stats.Batches)
	assert.Equal(t, 3, stats.BatchesSkipped)
}

func TestEnrich_PartialBudgetChargesUpToMax(t *testing.T) {
	provider := &fakeCatalog{}
	listings := listingsOf(30) // 3 batches

	budget := domain.NewCallBudget(2)
	stats, _ := New(provider, 10, 1, discard()).Enrich(context.Background(), "us", listings, budget)

	assert.Len(t, provider.calls, 2)
	assert.Equal(t, 1, stats.BatchesSkipped)
}

func TestEnrich_FailedBatchDoesNotAbortSiblings(t *testing.T) {
	provider := &fakeCatalog{
		items: map[string]domain.CatalogItem{
			"B000000010": {ASIN: "B000000010", Title: strp("Survivor")},
		},
		errs: map[string]error{"B000000000": domain.ErrProviderUnavailable},
	}
	listings := listingsOf(20) // batch 1 fails, batch 2 succeeds

	stats, _ := New(provider, 10, 1, discard()).Enrich(context.Background(), "us", listings, domain.NewCallBudget(10))

	assert.Equal(t, 1, stats.BatchesFailed)
	assert.Equal(t, 1, stats.Enriched)
	assert.Equal(t, "Survivor", listings[10].Title.Value)
}

func TestEnrich_PermissionDeniedDisablesCapability(t *testing.T) {
	provider := &fakeCatalog{
		errs: map[string]error{"B000000000": fmt.Errorf("catalog: %w", domain.ErrPermissionDenied)},
	}
	listings := listingsOf(30)

	stats, _ := New(provider, 10, 1, discard()).Enrich(context.Background(), "us", listings, domain.NewCallBudget(10))

	assert.True(t, stats.PermissionDenied)
	assert.Len(t, provider.calls, 1, "remaining batches are skipped, not retried")
	assert.Equal(t, 2, stats.BatchesSkipped)
}
