package domain

// BrandStatus tracks how settled a brand identification is. Status may move
// up or down after resolution; the raw brand string itself is never cleared.
type BrandStatus string

const (
	BrandCanonical     BrandStatus = "canonical"
	BrandVariant       BrandStatus = "variant"
	BrandLowConfidence BrandStatus = "low_confidence"
	BrandUnknown       BrandStatus = "unknown"
)

// BrandSource names the waterfall strategy that produced the brand value.
type BrandSource string

const (
	BrandSourceOfficialFlag    BrandSource = "official_brand_flag"
	BrandSourceStructuredField BrandSource = "structured_field"
	BrandSourceSellerName      BrandSource = "seller_name"
	BrandSourceTitle           BrandSource = "inferred_from_title"
	BrandSourceSecondary       BrandSource = "secondary_provider"
	BrandSourceUnknown         BrandSource = "unknown"
)

// BrandResolution is the outcome of the brand waterfall for one listing.
//
// Invariant: once RawBrand is set from any source it is never cleared; later
// frequency/revenue-share passes may only change Status.
type BrandResolution struct {
	RawBrand        string      `json:"raw_brand,omitempty"`
	NormalizedBrand string      `json:"normalized_brand,omitempty"`
	Status          BrandStatus `json:"status"`
	Source          BrandSource `json:"source"`
}

// Resolved reports whether any brand value was found at all.
func (b BrandResolution) Resolved() bool {
	return b.RawBrand != ""
}
