// Package volume estimates monthly search volume for a keyword from page
// signals. The model is multiplicative and heuristic; it always yields a
// range plus a confidence label, never a point value.
package volume

import (
	"strings"

	"github.com/ascendly/marketsnap/internal/domain"
)

// baseVolumePerListing anchors the estimate: a fuller page implies a keyword
// that more sellers chase.
const baseVolumePerListing = 450

// sponsoredBumpThreshold is the sponsored share above which advertisers are
// visibly bidding on the keyword.
const sponsoredBumpThreshold = 0.30

const sponsoredBump = 1.25

// reviewBands map average review volume onto a demand multiplier. Review
// count accretes over a product's life, so heavy averages signal a mature,
// heavily searched keyword.
var reviewBands = []struct {
	atLeast    float64
	multiplier float64
}{
	{1500, 2.0},
	{500, 1.5},
	{100, 1.1},
	{0, 0.8},
}

// categoryHints infer a coarse category bucket from keyword tokens. Two
// buckets only: consumable keywords turn over faster than durable ones.
var categoryHints = map[string]string{
	"supplement": "consumable",
	"vitamin":    "consumable",
	"coffee":     "consumable",
	"tea":        "consumable",
	"snack":      "consumable",
	"protein":    "consumable",
	"shampoo":    "consumable",
	"soap":       "consumable",
	"cleaner":    "consumable",
	"wipes":      "consumable",
	"holder":     "durable",
	"organizer":  "durable",
	"stand":      "durable",
	"mount":      "durable",
	"case":       "durable",
	"tool":       "durable",
	"press":      "durable",
	"rack":       "durable",
	"lamp":       "durable",
	"desk":       "durable",
}

var categoryMultipliers = map[string]float64{
	"consumable": 1.4,
	"durable":    1.0,
}

// Estimate runs the model. With zero listings the estimate is marked
// unavailable; otherwise the range is [point*0.7, point*1.3] and confidence
// is medium only when a category could be inferred from the keyword.
func Estimate(keyword string, listings []domain.CanonicalListing) domain.SearchVolumeEstimate {
	if len(listings) == 0 {
		return domain.SearchVolumeEstimate{Confidence: domain.ConfidenceLow}
	}

	point := float64(len(listings) * baseVolumePerListing)
	point *= reviewMultiplier(listings)

	if sponsoredShare(listings) > sponsoredBumpThreshold {
		point *= sponsoredBump
	}

	est := domain.SearchVolumeEstimate{
		Confidence: domain.ConfidenceLow,
		Available:  true,
	}
	if bucket, ok := inferCategory(keyword); ok {
		point *= categoryMultipliers[bucket]
		est.Category = bucket
		est.Confidence = domain.ConfidenceMedium
	}

	est.Low = int(point * 0.7)
	est.High = int(point * 1.3)
	return est
}

func reviewMultiplier(listings []domain.CanonicalListing) float64 {
	avg := domain.ReviewStatsOf(listings).Average
	for _, b := range reviewBands {
		if avg >= b.atLeast {
			return b.multiplier
		}
	}
	return reviewBands[len(reviewBands)-1].multiplier
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

func inferCategory(keyword string) (string, bool) {
	for _, token := range strings.Fields(strings.ToLower(keyword)) {
		if bucket, ok := categoryHints[strings.Trim(token, ".,!?")]; ok {
			return bucket, true
		}
	}
	return "", false
}
