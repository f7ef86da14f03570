// Package domain defines the core types, provider interfaces, and sentinel
// errors shared by every layer of the marketsnap aggregation pipeline.
package domain

// RawListing is one search-result row exactly as the primary provider
// reported it, before any deduplication. Optional fields are pointers;
// a nil pointer means the provider did not return the field, and nothing
// downstream is allowed to fabricate it. Immutable once parsed.
type RawListing struct {
	ASIN        string   `json:"asin"`
	Position    int      `json:"position"` // 1-indexed page position
	Title       *string  `json:"title,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Sponsored   bool     `json:"sponsored"`
	RawRank     *int     `json:"raw_rank,omitempty"`

	// Optional primary-provider extras consumed by the resolvers.
	Brand         *string `json:"brand,omitempty"`
	OfficialBrand bool    `json:"official_brand"`
	SellerName    *string `json:"seller_name,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
	DeliveryText  *string `json:"delivery_text,omitempty"`
	PrimeEligible bool    `json:"prime_eligible"`
}

// SponsoredMeta is the per-ASIN sponsored aggregate computed over all raw
// rows on the page before deduplication. Sponsored-ness is a property of the
// ASIN's presence anywhere on the result page, not of a single row, and must
// survive every later filtering step unchanged.
type SponsoredMeta struct {
	AppearsSponsored   bool  `json:"appears_sponsored"`
	SponsoredPositions []int `json:"sponsored_positions,omitempty"`
}

// FulfillmentChannel identifies which party ships an order.
type FulfillmentChannel string

const (
	FulfillmentFBA     FulfillmentChannel = "FBA"
	FulfillmentFBM     FulfillmentChannel = "FBM"
	FulfillmentUnknown FulfillmentChannel = "UNKNOWN"
)

// BSR is a category-scoped best-seller rank. Only ranks carrying a
// human-readable category are authoritative.
type BSR struct {
	Rank     int    `json:"rank"`
	Category string `json:"category"`
}

// CanonicalListing is the reconciled, one-per-ASIN view of a product on the
// result page. All mutable fields carry provenance.
type CanonicalListing struct {
	ASIN string `json:"asin"`

	// OrganicPosition is the best non-sponsored page position this ASIN
	// appeared at; zero means the ASIN appeared only as a sponsored slot.
	OrganicPosition int `json:"organic_position"`

	Title       Field[string]             `json:"title"`
	Brand       Field[string]             `json:"brand"`
	Image       Field[string]             `json:"image"`
	Category    Field[string]             `json:"category"`
	Rank        Field[BSR]                `json:"rank"`
	Price       Field[float64]            `json:"price"`
	Fulfillment Field[FulfillmentChannel] `json:"fulfillment"`

	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`

	Sponsored SponsoredMeta   `json:"sponsored"`
	BrandInfo BrandResolution `json:"brand_info"`

	// Estimator outputs, zero until the demand stage runs.
	EstimatedUnits   float64 `json:"estimated_units"`
	EstimatedRevenue float64 `json:"estimated_revenue"`
}

// HasRankAndPrice reports whether the listing qualifies for revenue math:
// both a category-scoped rank and a price must be present.
func (l *CanonicalListing) HasRankAndPrice() bool {
	return l.Rank.Present && l.Rank.Value.Category != "" && l.Price.Present
}
