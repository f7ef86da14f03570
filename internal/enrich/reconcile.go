package enrich

import (
	"github.com/ascendly/marketsnap/internal/canonical"
	"github.com/ascendly/marketsnap/internal/domain"
)

// merge applies the fixed source-priority rules for one catalog record:
// a field already carrying an authoritative secondary value is never
// overwritten; anything else yields to the incoming secondary value. Absent
// catalog fields change nothing; absence never downgrades what we have.
func merge(l *domain.CanonicalListing, item domain.CatalogItem) {
	if item.Title != nil && !l.Title.Locked() {
		l.Title = domain.NewField(*item.Title, domain.SourceSecondary, domain.ConfidenceHigh)
	}
	if item.ImageURL != nil && !l.Image.Locked() {
		l.Image = domain.NewField(*item.ImageURL, domain.SourceSecondary, domain.ConfidenceHigh)
	}
	if item.Category != nil && !l.Category.Locked() {
		l.Category = domain.NewField(*item.Category, domain.SourceSecondary, domain.ConfidenceHigh)
	}
	if item.Price != nil && !l.Price.Locked() {
		l.Price = domain.NewField(*item.Price, domain.SourceSecondary, domain.ConfidenceHigh)
	}

	mergeBrand(l, item)
	mergeRank(l, item)
	mergeFulfillment(l, item)
}

// mergeRank accepts only a category-scoped rank. A catalog hit without one
// leaves the field unavailable; the rank is never estimated at this stage.
func mergeRank(l *domain.CanonicalListing, item domain.CatalogItem) {
	if l.Rank.Locked() {
		return
	}
	rank, ok := item.MainRank()
	if !ok {
		return
	}
	l.Rank = domain.NewField(rank, domain.SourceSecondary, domain.ConfidenceHigh)
}

func mergeFulfillment(l *domain.CanonicalListing, item domain.CatalogItem) {
	if item.Fulfillment == nil || l.Fulfillment.Locked() {
		return
	}
	l.Fulfillment = domain.NewField(domain.FulfillmentChannel(*item.Fulfillment),
		domain.SourceSecondary, domain.ConfidenceHigh)
}

// mergeBrand updates the brand field under the usual priority rules and keeps
// the BrandResolution invariant: a raw brand, once set, is never cleared or
// rewritten. A secondary match on the existing brand retags its source so the
// upgrade pass can promote it; an unresolved brand is adopted outright.
func mergeBrand(l *domain.CanonicalListing, item domain.CatalogItem) {
	if item.Brand == nil || *item.Brand == "" {
		return
	}
	if !l.Brand.Locked() {
		l.Brand = domain.NewField(*item.Brand, domain.SourceSecondary, domain.ConfidenceHigh)
	}

	incoming := canonical.NormalizeBrand(*item.Brand)
	switch {
	case !l.BrandInfo.Resolved():
		l.BrandInfo = domain.BrandResolution{
			RawBrand:        *item.Brand,
			NormalizedBrand: incoming,
			Status:          domain.BrandCanonical,
			Source:          domain.BrandSourceSecondary,
		}
	case l.BrandInfo.NormalizedBrand == incoming:
		l.BrandInfo.Source = domain.BrandSourceSecondary
	}
}
