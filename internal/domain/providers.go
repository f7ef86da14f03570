package domain

import "context"

// SearchResult is the parsed output of one primary-provider search call. Raw
// holds the undecoded response body for the audit archiver.
type SearchResult struct {
	Rows []RawListing
	Raw  []byte
}

// SearchProvider is the primary, rate-limited SERP scraping provider. It has
// no batch-by-ASIN capability; one call returns one result page.
type SearchProvider interface {
	Search(ctx context.Context, keyword, marketplace string, page int) (SearchResult, error)
}

// CatalogRank is one rank entry from the secondary provider. The main
// category rank is the entry with the shortest category-path string.
type CatalogRank struct {
	Rank     int    `json:"rank"`
	Category string `json:"category"`
}

// CatalogItem is one ASIN's authoritative catalog/pricing record from the
// secondary provider. Pointer fields are absent when nil; absence propagates
// as an unavailable canonical field, never as a guess.
type CatalogItem struct {
	ASIN        string        `json:"asin"`
	Title       *string       `json:"title,omitempty"`
	Brand       *string       `json:"brand,omitempty"`
	ImageURL    *string       `json:"image_url,omitempty"`
	Category    *string       `json:"category,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	Ranks       []CatalogRank `json:"ranks,omitempty"`
	Fulfillment *string       `json:"fulfillment,omitempty"` // "FBA" or "FBM" when known
}

// MainRank picks the category-scoped rank with the shortest category path.
// ok is false when no rank entry carries a category at all.
func (it CatalogItem) MainRank() (BSR, bool) {
	best := -1
	for i, r := range it.Ranks {
		if r.Category == "" || r.Rank <= 0 {
			continue
		}
		if best == -1 || len(r.Category) < len(it.Ranks[best].Category) {
			best = i
		}
	}
	if best == -1 {
		return BSR{}, false
	}
	return BSR{Rank: it.Ranks[best].Rank, Category: it.Ranks[best].Category}, true
}

// CatalogFailure records one ASIN the secondary provider could not serve.
type CatalogFailure struct {
	ASIN   string `json:"asin"`
	Reason string `json:"reason"`
}

// CatalogResult is the partial-success response of one batch lookup.
type CatalogResult struct {
	Items  map[string]CatalogItem
	Failed []CatalogFailure
	Raw    []byte
}

// CatalogProvider is the secondary authoritative catalog/pricing provider.
// Lookup accepts a bounded batch of ASINs and returns partial successes.
type CatalogProvider interface {
	Lookup(ctx context.Context, marketplace string, asins []string) (CatalogResult, error)
}
