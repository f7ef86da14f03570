// Package score computes the competitive pressure index: a deterministic
// 0-100 composite of review dominance, brand concentration, sponsored
// saturation, and price compression, adjusted by a seller-fit modifier.
package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ascendly/marketsnap/internal/domain"
)

// band maps a raw ratio onto fixed points: the first band whose threshold the
// ratio meets wins.
type band struct {
	atLeast float64
	points  float64
}

var (
	reviewDominanceBands = []band{
		{0.80, 30}, {0.60, 22}, {0.40, 14}, {0.20, 7},
	}
	brandConcentrationBands = []band{
		{0.50, 25}, {0.35, 18}, {0.20, 10}, {0.10, 5},
	}
	sponsoredSaturationBands = []band{
		{0.50, 20}, {0.35, 15}, {0.20, 10}, {0.10, 5},
	}
)

// priceCompressionBands score the relative p10-p90 spread. Tighter spreads
// mean sellers are boxed into a narrow price corridor, which reads as more
// pressure, so the bands invert: below each threshold wins the points.
var priceCompressionBands = []struct {
	below  float64
	points float64
}{
	{0.15, 15}, {0.30, 10}, {0.50, 5},
}

// Compute scores the page. It is a pure function: identical listings and
// seller context always produce the identical result, with no external calls.
// Zero listings yield score 0 with an explicit no-data explanation, never an
// omitted field.
func Compute(listings []domain.CanonicalListing, seller domain.SellerContext) domain.CPIResult {
	if len(listings) == 0 {
		return domain.CPIResult{
			Score:       0,
			Label:       domain.CPILow,
			Explanation: "no data: zero listings on page",
		}
	}

	res := domain.CPIResult{
		ReviewDominance:     bandPoints(reviewDominanceBands, reviewDominance(listings)),
		BrandConcentration:  bandPoints(brandConcentrationBands, BrandDominance(listings)),
		SponsoredSaturation: bandPoints(sponsoredSaturationBands, sponsoredShare(listings)),
		PriceCompression:    priceCompression(listings),
		SellerModifier:      sellerModifier(seller.Stage),
	}

	raw := res.ReviewDominance + res.BrandConcentration + res.SponsoredSaturation +
		res.PriceCompression + res.SellerModifier
	res.Score = clamp(raw, 0, 100)
	res.Label = labelFor(res.Score)
	res.Explanation = explain(res)
	return res
}

func labelFor(score float64) domain.CPILabel {
	switch {
	case score <= 30:
		return domain.CPILow
	case score <= 60:
		return domain.CPIModerate
	case score <= 80:
		return domain.CPIHigh
	default:
		return domain.CPIExtreme
	}
}

// reviewDominance is the share of total page review volume held by the three
// most-reviewed listings.
func reviewDominance(listings []domain.CanonicalListing) float64 {
	counts := make([]int, 0, len(listings))
	total := 0
	for i := range listings {
		if listings[i].ReviewCount == nil {
			continue
		}
		counts = append(counts, *listings[i].ReviewCount)
		total += *listings[i].ReviewCount
	}
	if total == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	top := 0
	for i := 0; i < len(counts) && i < 3; i++ {
		top += counts[i]
	}
	return float64(top) / float64(total)
}

// BrandDominance is the top single brand's share of page listings, counted
// over normalized brand names. Listings without a resolved brand dilute the
// denominator but can never concentrate it.
func BrandDominance(listings []domain.CanonicalListing) float64 {
	counts := map[string]int{}
	for i := range listings {
		if !listings[i].BrandInfo.Resolved() {
			continue
		}
		counts[listings[i].BrandInfo.NormalizedBrand]++
	}
	top := 0
	for _, n := range counts {
		if n > top {
			top = n
		}
	}
	return float64(top) / float64(len(listings))
}

func sponsoredShare(listings []domain.CanonicalListing) float64 {
	sponsored := 0
	for i := range listings {
		if listings[i].Sponsored.AppearsSponsored {
			sponsored++
		}
	}
	return float64(sponsored) / float64(len(listings))
}

func priceCompression(listings []domain.CanonicalListing) float64 {
	stats := domain.PriceStatsOf(listings)
	if stats.Sampled < 2 || stats.Average <= 0 {
		return 0
	}
	spread := (stats.P90 - stats.P10) / stats.Average
	for _, b := range priceCompressionBands {
		if spread < b.below {
			return b.points
		}
	}
	return 0
}

func sellerModifier(stage domain.SellerStage) float64 {
	switch stage {
	case domain.SellerNew:
		return 10
	case domain.SellerScaling:
		return -10
	default:
		return 0
	}
}

func bandPoints(bands []band, ratio float64) float64 {
	for _, b := range bands {
		if ratio >= b.atLeast {
			return b.points
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func explain(r domain.CPIResult) string {
	parts := []string{
		fmt.Sprintf("review dominance %.0f/30", r.ReviewDominance),
		fmt.Sprintf("brand concentration %.0f/25", r.BrandConcentration),
		fmt.Sprintf("sponsored saturation %.0f/20", r.SponsoredSaturation),
		fmt.Sprintf("price compression %.0f/15", r.PriceCompression),
	}
	if r.SellerModifier != 0 {
		parts = append(parts, fmt.Sprintf("seller modifier %+.0f", r.SellerModifier))
	}
	return strings.Join(parts, ", ")
}
