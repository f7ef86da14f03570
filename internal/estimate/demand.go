// Package estimate converts best-seller ranks into demand and revenue
// estimates via category-calibrated curves, rank weighting, and a single
// market-level dampening multiplier.
package estimate

import (
	"log/slog"
	"math"

	"github.com/ascendly/marketsnap/internal/domain"
)

// rankDecay is the exponential decay constant for organic page rank weights:
// weight = e^(-rankDecay * (rank-1)).
const rankDecay = 0.15

// sponsoredOnlyWeight is the flat weight for listings that appeared only as
// sponsored slots and therefore carry no organic rank.
const sponsoredOnlyWeight = 0.5

// Result is the demand stage output. Totals are point values; the calibration
// stage widens them into ranges.
type Result struct {
	TotalUnits   float64
	TotalRevenue float64

	Eligible      int     // listings with both rank and price
	RankCoverage  float64 // share of listings carrying a category-scoped rank
	PriceCoverage float64

	Confidence domain.Confidence // data-quality confidence used for dampening
	Dampener   float64           // the one multiplier that was applied
}

// Estimator runs the demand stage.
type Estimator struct {
	logger *slog.Logger
}

// New creates an Estimator.
func New(logger *slog.Logger) *Estimator {
	return &Estimator{logger: logger.With(slog.String("component", "estimator"))}
}

// Estimate computes weighted units and revenue over the eligible listings and
// writes per-listing allocations back onto them. Listings missing either a
// category-scoped rank or a price are excluded outright; there is no fallback
// estimate. Aggregation happens before dampening, and exactly one market
// dampening multiplier is applied (plus the flat coverage penalty when rank
// coverage is below half). Per-listing allocations are scaled by the same
// factor so they always sum to the total.
func (e *Estimator) Estimate(listings []domain.CanonicalListing) Result {
	res := Result{Confidence: domain.ConfidenceLow, Dampener: 1}
	if len(listings) == 0 {
		return res
	}

	withRank, withPrice := 0, 0
	var rawTotal float64

	for i := range listings {
		l := &listings[i]
		if l.Rank.Present && l.Rank.Value.Category != "" {
			withRank++
		}
		if l.Price.Present {
			withPrice++
		}

		if !l.HasRankAndPrice() {
			continue
		}
		bucket, ok := NormalizeCategory(l.Rank.Value.Category)
		if !ok {
			continue
		}

		units := unitsForRank(bucket, l.Rank.Value.Rank) * pageWeight(l)
		if units <= 0 {
			continue
		}

		l.EstimatedUnits = units
		rawTotal += units
		res.Eligible++
	}

	res.RankCoverage = float64(withRank) / float64(len(listings))
	res.PriceCoverage = float64(withPrice) / float64(len(listings))
	res.Confidence = dataQuality(res.RankCoverage, res.PriceCoverage)

	damp := dampener(res.Confidence)
	if res.RankCoverage < 0.5 {
		damp *= 0.85
	}
	res.Dampener = damp

	for i := range listings {
		l := &listings[i]
		if l.EstimatedUnits == 0 {
			continue
		}
		l.EstimatedUnits *= damp
		l.EstimatedRevenue = l.EstimatedUnits * l.Price.Value
		res.TotalRevenue += l.EstimatedRevenue
	}
	res.TotalUnits = rawTotal * damp

	e.logger.Debug("demand estimate",
		slog.Int("eligible", res.Eligible),
		slog.Float64("rank_coverage", res.RankCoverage),
		slog.String("confidence", string(res.Confidence)),
		slog.Float64("dampener", damp),
		slog.Float64("total_units", res.TotalUnits),
	)

	return res
}

// pageWeight weights a listing's contribution by its page rank. Rank 1 gets
// weight 1.0; organic weight decays exponentially; sponsored-only listings
// get a flat weight.
func pageWeight(l *domain.CanonicalListing) float64 {
	if l.OrganicPosition <= 0 {
		return sponsoredOnlyWeight
	}
	return math.Exp(-rankDecay * float64(l.OrganicPosition-1))
}

// dampener maps data-quality confidence onto the single market-level
// multiplier.
func dampener(c domain.Confidence) float64 {
	switch c {
	case domain.ConfidenceHigh:
		return 0.95
	case domain.ConfidenceMedium:
		return 0.80
	default:
		return 0.65
	}
}

// dataQuality grades the page's BSR and price coverage.
func dataQuality(rankCov, priceCov float64) domain.Confidence {
	switch {
	case rankCov >= 0.7 && priceCov >= 0.7:
		return domain.ConfidenceHigh
	case rankCov >= 0.4 && priceCov >= 0.4:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// powNeg computes x^(-exp) for positive x.
func powNeg(x, exp float64) float64 {
	return math.Pow(x, -exp)
}
