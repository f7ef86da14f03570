package serp

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ascendly/marketsnap/internal/domain"
)

// flexFloat unmarshals from a JSON number or a price-like string ("$24.99",
// "24,99") so rows survive the provider's inconsistent price serialization.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(strings.TrimLeft(s, "$€£ "))
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// apiResult is one search-result row as the provider serializes it. Every
// field except position may be missing; missing stays missing.
type apiResult struct {
	ASIN          string     `json:"asin"`
	Title         *string    `json:"title"`
	Price         *flexFloat `json:"price"`
	Rating        *float64   `json:"rating"`
	ReviewCount   *int       `json:"reviews"`
	Sponsored     bool       `json:"sponsored"`
	Rank          *int       `json:"rank"`
	Brand         *string    `json:"brand"`
	OfficialBrand bool       `json:"is_official_brand"`
	Seller        *string    `json:"seller"`
	ImageURL      *string    `json:"image"`
	DeliveryText  *string    `json:"delivery"`
	PrimeEligible bool       `json:"prime"`
}

// apiSearchResponse is the provider's search envelope.
type apiSearchResponse struct {
	Query   string      `json:"query"`
	Results []apiResult `json:"results"`
}

// toRawListing converts one provider row to the immutable domain record.
// position is the 1-indexed page slot the row occupied in the response.
func (r *apiResult) toRawListing(position int) domain.RawListing {
	out := domain.RawListing{
		ASIN:          strings.TrimSpace(r.ASIN),
		Position:      position,
		Title:         r.Title,
		Rating:        r.Rating,
		ReviewCount:   r.ReviewCount,
		Sponsored:     r.Sponsored,
		RawRank:       r.Rank,
		Brand:         r.Brand,
		OfficialBrand: r.OfficialBrand,
		SellerName:    r.Seller,
		ImageURL:      r.ImageURL,
		DeliveryText:  r.DeliveryText,
		PrimeEligible: r.PrimeEligible,
	}
	if r.Price != nil {
		p := float64(*r.Price)
		out.Price = &p
	}
	return out
}
