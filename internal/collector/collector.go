// Package collector performs raw-result collection: one budget-charged call
// to the primary search provider per aggregation request, parsed into
// immutable per-appearance records plus per-ASIN sponsored aggregates.
package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ascendly/marketsnap/internal/domain"
)

// PageResult is the collector's output for one result page.
type PageResult struct {
	// Rows are the usable per-appearance records, in page order. Rows
	// missing an ASIN have already been dropped.
	Rows []domain.RawListing

	// Sponsored maps ASIN to its sponsored aggregate, computed over every
	// usable row before any deduplication.
	Sponsored map[string]domain.SponsoredMeta

	// Dropped counts rows discarded for a missing ASIN.
	Dropped int

	// Raw is the undecoded provider payload, for the audit archiver.
	Raw []byte
}

// Collector calls the primary search provider and parses its result page.
type Collector struct {
	provider domain.SearchProvider
	logger   *slog.Logger
}

// New creates a Collector.
func New(provider domain.SearchProvider, logger *slog.Logger) *Collector {
	return &Collector{
		provider: provider,
		logger:   logger.With(slog.String("component", "collector")),
	}
}

// Collect fetches one result page. The call is charged against the budget
// before it is issued. A zero-result page returns an empty PageResult and no
// error; a page with rows but no extractable ASINs returns
// domain.ErrExtractionFailed so that downstream estimation failures can never
// be mistaken for "no data".
func (c *Collector) Collect(ctx context.Context, keyword, marketplace string, page int, budget *domain.CallBudget) (PageResult, error) {
	if !budget.Acquire() {
		return PageResult{}, fmt.Errorf("collector: search %q: %w", keyword, domain.ErrBudgetExhausted)
	}

	res, err := c.provider.Search(ctx, keyword, marketplace, page)
	if err != nil {
		return PageResult{}, fmt.Errorf("collector: search %q: %w", keyword, err)
	}

	out := PageResult{
		Sponsored: make(map[string]domain.SponsoredMeta),
		Raw:       res.Raw,
	}

	for _, row := range res.Rows {
		if row.ASIN == "" {
			out.Dropped++
			continue
		}
		out.Rows = append(out.Rows, row)

		meta := out.Sponsored[row.ASIN]
		if row.Sponsored {
			meta.AppearsSponsored = true
			meta.SponsoredPositions = append(meta.SponsoredPositions, row.Position)
		}
		out.Sponsored[row.ASIN] = meta
	}

	if len(res.Rows) > 0 && len(out.Rows) == 0 {
		return PageResult{}, fmt.Errorf("collector: search %q: %d rows, none usable: %w",
			keyword, len(res.Rows), domain.ErrExtractionFailed)
	}

	c.logger.Info("collected result page",
		slog.String("keyword", keyword),
		slog.String("marketplace", marketplace),
		slog.Int("rows", len(out.Rows)),
		slog.Int("dropped", out.Dropped),
	)

	return out, nil
}
