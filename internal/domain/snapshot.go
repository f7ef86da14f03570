package domain

import "time"

// SnapshotSchemaVersion is embedded in every cache entry and persisted
// snapshot. Bumping it invalidates all previously cached entries
// unconditionally: the version is part of the cache key and is also checked
// against the payload on read.
const SnapshotSchemaVersion = 3

// CPILabel buckets the 0-100 competitive pressure score.
type CPILabel string

const (
	CPILow      CPILabel = "low"
	CPIModerate CPILabel = "moderate"
	CPIHigh     CPILabel = "high"
	CPIExtreme  CPILabel = "extreme"
)

// CPIResult is the competitive pressure index for one snapshot. It is a pure
// function of the canonical listings plus seller context and is immutable
// once written into a snapshot; consumers must never recompute it.
type CPIResult struct {
	Score               float64  `json:"score"`
	Label               CPILabel `json:"label"`
	ReviewDominance     float64  `json:"review_dominance"`     // 0-30
	BrandConcentration  float64  `json:"brand_concentration"`  // 0-25
	SponsoredSaturation float64  `json:"sponsored_saturation"` // 0-20
	PriceCompression    float64  `json:"price_compression"`    // 0-15
	SellerModifier      float64  `json:"seller_modifier"`      // -10..+10
	Explanation         string   `json:"explanation,omitempty"`
}

// SearchVolumeEstimate is always a range plus a confidence label, never a
// point value. Available is false only when the page had zero listings.
type SearchVolumeEstimate struct {
	Low        int        `json:"low"`
	High       int        `json:"high"`
	Confidence Confidence `json:"confidence"`
	Category   string     `json:"category,omitempty"`
	Available  bool       `json:"available"`
}

// EstimateRange is a calibrated low/high band around a modeled point value.
type EstimateRange struct {
	Point float64 `json:"point"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// FulfillmentMix is the page's fulfillment-channel split in whole percent.
// The three shares always sum to exactly 100.
type FulfillmentMix struct {
	FBAPct     int `json:"fba_pct"`
	FBMPct     int `json:"fbm_pct"`
	UnknownPct int `json:"unknown_pct"`
}

// Sum returns the total of the three shares; it exists for invariant checks.
func (m FulfillmentMix) Sum() int { return m.FBAPct + m.FBMPct + m.UnknownPct }

// PriceStats summarizes page pricing. Sampled from listings with a present
// price field only.
type PriceStats struct {
	P10     float64 `json:"p10"`
	Median  float64 `json:"median"`
	P90     float64 `json:"p90"`
	Average float64 `json:"average"`
	Sampled int     `json:"sampled"` // listings contributing a price
}

// ReviewStats summarizes page review volume.
type ReviewStats struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Max     int     `json:"max"`
	Sampled int     `json:"sampled"`
}

// CoverageStats records how much of the page each data source reached. The
// advisory layer uses these to phrase its confidence language.
type CoverageStats struct {
	Listings         int     `json:"listings"`
	RankCoverage     float64 `json:"rank_coverage"`  // share of listings with category-scoped BSR
	PriceCoverage    float64 `json:"price_coverage"` // share of listings with a price
	EnrichedListings int     `json:"enriched_listings"`
	CallsCharged     int     `json:"calls_charged"`
	CallsSkipped     int     `json:"calls_skipped"`
}

// MarketSnapshot is the aggregate output of one aggregation request. It is
// immutable once persisted; downstream consumers read fields by name and must
// treat CPI and rank-sourced values as ground truth.
type MarketSnapshot struct {
	SnapshotID  string `json:"snapshot_id"`
	Keyword     string `json:"keyword"`
	Marketplace string `json:"marketplace"`
	Page        int    `json:"page"`

	Listings []CanonicalListing `json:"listings"`

	Prices  PriceStats  `json:"prices"`
	Reviews ReviewStats `json:"reviews"`

	SponsoredAppearances int `json:"sponsored_appearances"`
	OrganicAppearances   int `json:"organic_appearances"`

	Fulfillment    FulfillmentMix `json:"fulfillment"`
	BrandDominance float64        `json:"brand_dominance"` // top brand's listing share, 0-1

	CPI          CPIResult            `json:"cpi"`
	SearchVolume SearchVolumeEstimate `json:"search_volume"`

	MonthlyUnits   EstimateRange `json:"monthly_units"`
	MonthlyRevenue EstimateRange `json:"monthly_revenue"`

	Confidence Confidence    `json:"confidence"`
	Coverage   CoverageStats `json:"coverage"`
	Warnings   []string      `json:"warnings,omitempty"`

	SchemaVersion int       `json:"schema_version"`
	ComputedAt    time.Time `json:"computed_at"`
}

// AggregateRequest is the inbound request shape for one snapshot computation.
// Page is fixed at 1 for this pipeline.
type AggregateRequest struct {
	Keyword     string        `json:"keyword"`
	Marketplace string        `json:"marketplace"`
	Seller      SellerContext `json:"seller"`
}
