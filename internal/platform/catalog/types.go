package catalog

import (
	"strings"

	"github.com/ascendly/marketsnap/internal/domain"
)

type apiLookupRequest struct {
	Marketplace string   `json:"marketplace"`
	ASINs       []string `json:"asins"`
}

// apiRank is one sales-rank entry. Only entries with a human-readable
// category path count as category-scoped downstream.
type apiRank struct {
	Rank     int    `json:"rank"`
	Category string `json:"category"`
}

// apiProduct is one ASIN's catalog record as the provider serializes it.
type apiProduct struct {
	ASIN        string    `json:"asin"`
	Title       *string   `json:"title"`
	Brand       *string   `json:"brand"`
	ImageURL    *string   `json:"image_url"`
	Category    *string   `json:"category"`
	Price       *float64  `json:"price"`
	Ranks       []apiRank `json:"sales_ranks"`
	Fulfillment *string   `json:"fulfillment_channel"` // "AMAZON_NA" / "MERCHANT" / absent
}

type apiError struct {
	ASIN    string `json:"asin"`
	Message string `json:"message"`
}

// apiLookupResponse is the provider's partial-success envelope.
type apiLookupResponse struct {
	Products map[string]apiProduct `json:"products"`
	Errors   []apiError            `json:"errors"`
}

func (r *apiLookupResponse) toResult(raw []byte) domain.CatalogResult {
	out := domain.CatalogResult{
		Items: make(map[string]domain.CatalogItem, len(r.Products)),
		Raw:   raw,
	}
	for asin, p := range r.Products {
		out.Items[asin] = p.toCatalogItem(asin)
	}
	for _, e := range r.Errors {
		out.Failed = append(out.Failed, domain.CatalogFailure{ASIN: e.ASIN, Reason: e.Message})
	}
	return out
}

func (p *apiProduct) toCatalogItem(asin string) domain.CatalogItem {
	item := domain.CatalogItem{
		ASIN:     asin,
		Title:    p.Title,
		Brand:    p.Brand,
		ImageURL: p.ImageURL,
		Category: p.Category,
		Price:    p.Price,
	}
	for _, r := range p.Ranks {
		item.Ranks = append(item.Ranks, domain.CatalogRank{Rank: r.Rank, Category: r.Category})
	}
	if p.Fulfillment != nil {
		ch := normalizeFulfillment(*p.Fulfillment)
		if ch != "" {
			item.Fulfillment = &ch
		}
	}
	return item
}

// normalizeFulfillment maps the provider's channel vocabulary onto FBA/FBM.
// Unrecognized values return "" so the field degrades to unavailable instead
// of being guessed.
func normalizeFulfillment(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "AMAZON_NA", "AMAZON_EU", "AMAZON_JP", "FBA":
		return string(domain.FulfillmentFBA)
	case "MERCHANT", "FBM":
		return string(domain.FulfillmentFBM)
	default:
		return ""
	}
}
