// Package canonical deduplicates raw listings into one CanonicalListing per
// ASIN and resolves brand and fulfillment via ordered strategy waterfalls.
package canonical

import (
	"log/slog"

	"github.com/ascendly/marketsnap/internal/domain"
)

// Builder turns collector output into canonical listings carrying
// primary-provider provenance. Secondary-provider reconciliation happens
// later in the enrichment stage.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger.With(slog.String("component", "canonicalizer"))}
}

// Build deduplicates rows by ASIN, keeping page order of first appearance.
// Duplicate rows only fill fields the first appearance was missing; they
// never overwrite. Each listing is attached its precomputed sponsored meta
// and runs through the brand and fulfillment waterfalls.
func (b *Builder) Build(rows []domain.RawListing, sponsored map[string]domain.SponsoredMeta) []domain.CanonicalListing {
	index := make(map[string]int, len(rows))
	listings := make([]domain.CanonicalListing, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		at, seen := index[row.ASIN]
		if !seen {
			index[row.ASIN] = len(listings)
			listings = append(listings, newListing(row, sponsored[row.ASIN]))
			continue
		}
		fillFrom(&listings[at], row)
	}

	for i := range listings {
		l := &listings[i]
		l.BrandInfo = ResolveBrand(firstRowFor(rows, l.ASIN))
		if l.BrandInfo.Resolved() {
			l.Brand = domain.NewField(l.BrandInfo.RawBrand, brandFieldSource(l.BrandInfo.Source), brandFieldConfidence(l.BrandInfo.Status))
		}
		l.Fulfillment = ResolveFulfillment(firstRowFor(rows, l.ASIN))
	}

	b.logger.Debug("canonicalized page",
		slog.Int("rows", len(rows)),
		slog.Int("listings", len(listings)),
	)

	return listings
}

func newListing(row *domain.RawListing, meta domain.SponsoredMeta) domain.CanonicalListing {
	l := domain.CanonicalListing{
		ASIN:        row.ASIN,
		Title:       domain.UnavailableField[string](),
		Brand:       domain.UnavailableField[string](),
		Image:       domain.UnavailableField[string](),
		Category:    domain.UnavailableField[string](),
		Rank:        domain.UnavailableField[domain.BSR](),
		Price:       domain.UnavailableField[float64](),
		Fulfillment: domain.UnavailableField[domain.FulfillmentChannel](),
		Rating:      row.Rating,
		ReviewCount: row.ReviewCount,
		Sponsored:   meta,
	}
	if !row.Sponsored {
		l.OrganicPosition = row.Position
	}
	if row.Title != nil {
		l.Title = domain.NewField(*row.Title, domain.SourcePrimary, domain.ConfidenceHigh)
	}
	if row.Price != nil {
		l.Price = domain.NewField(*row.Price, domain.SourcePrimary, domain.ConfidenceMedium)
	}
	if row.ImageURL != nil {
		l.Image = domain.NewField(*row.ImageURL, domain.SourcePrimary, domain.ConfidenceMedium)
	}
	return l
}

// fillFrom merges a duplicate appearance of the same ASIN into the canonical
// listing: missing fields get filled, existing values are kept, and the best
// (lowest) organic position wins.
func fillFrom(l *domain.CanonicalListing, row *domain.RawListing) {
	if !row.Sponsored && row.Position > 0 {
		if l.OrganicPosition == 0 || row.Position < l.OrganicPosition {
			l.OrganicPosition = row.Position
		}
	}
	if !l.Title.Present && row.Title != nil {
		l.Title = domain.NewField(*row.Title, domain.SourcePrimary, domain.ConfidenceHigh)
	}
	if !l.Price.Present && row.Price != nil {
		l.Price = domain.NewField(*row.Price, domain.SourcePrimary, domain.ConfidenceMedium)
	}
	if !l.Image.Present && row.ImageURL != nil {
		l.Image = domain.NewField(*row.ImageURL, domain.SourcePrimary, domain.ConfidenceMedium)
	}
	if l.Rating == nil {
		l.Rating = row.Rating
	}
	if l.ReviewCount == nil {
		l.ReviewCount = row.ReviewCount
	}
}

// firstRowFor returns the first raw appearance of the ASIN; resolvers read
// provider flags (official brand, seller, delivery text) from it.
func firstRowFor(rows []domain.RawListing, asin string) *domain.RawListing {
	for i := range rows {
		if rows[i].ASIN == asin {
			return &rows[i]
		}
	}
	return &domain.RawListing{}
}

func brandFieldSource(src domain.BrandSource) domain.Source {
	switch src {
	case domain.BrandSourceSecondary:
		return domain.SourceSecondary
	case domain.BrandSourceTitle, domain.BrandSourceSellerName:
		return domain.SourceInferred
	default:
		return domain.SourcePrimary
	}
}

func brandFieldConfidence(status domain.BrandStatus) domain.Confidence {
	switch status {
	case domain.BrandCanonical:
		return domain.ConfidenceHigh
	case domain.BrandVariant:
		return domain.ConfidenceMedium
	case domain.BrandLowConfidence:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceUnknown
	}
}
