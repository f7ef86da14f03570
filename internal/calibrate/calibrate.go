// Package calibrate clamps modeled demand totals into empirically-trusted
// bands keyed by an inferred competition level, and validates cross-listing
// invariants over the finished product set. Violations are logged, never
// thrown: a snapshot with a logged warning is still a snapshot.
package calibrate

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/ascendly/marketsnap/internal/domain"
	"github.com/ascendly/marketsnap/internal/estimate"
)

// Level is the inferred competition level of a keyword's page.
type Level string

const (
	LevelEmerging  Level = "emerging"
	LevelContested Level = "contested"
	LevelSaturated Level = "saturated"
)

// unitBands are the trusted monthly-unit envelopes per competition level.
// Totals outside the band are clamped to its edge, with revenue scaled by the
// same factor so revenue stays consistent with units.
var unitBands = map[Level]struct {
	min, max float64
}{
	LevelEmerging:  {min: 50, max: 40000},
	LevelContested: {min: 500, max: 150000},
	LevelSaturated: {min: 2000, max: 400000},
}

// categoryMultipliers softly nudge totals for buckets whose curves run hot or
// cold against observed sales. Values outside [0.8, 1.2] are clamped.
var categoryMultipliers = map[string]float64{
	"grocery":         1.15,
	"beauty":          1.10,
	"home_kitchen":    1.05,
	"electronics":     0.95,
	"office_products": 0.85,
	"default":         1.0,
}

// rangeSpread widens the calibrated point into a low/high band per
// data-quality confidence.
var rangeSpread = map[domain.Confidence]float64{
	domain.ConfidenceHigh:   0.10,
	domain.ConfidenceMedium: 0.20,
	domain.ConfidenceLow:    0.35,
}

// Calibrator runs the final pipeline stage.
type Calibrator struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Calibrator {
	return &Calibrator{logger: logger.With(slog.String("component", "calibration"))}
}

// Calibrate applies the soft category multiplier, clamps the totals into the
// competition level's trust band, and widens the points into ranges. Returned
// warnings record any clamping that occurred.
func (c *Calibrator) Calibrate(listings []domain.CanonicalListing, units, revenue float64, conf domain.Confidence) (domain.EstimateRange, domain.EstimateRange, []string) {
	if units <= 0 {
		return domain.EstimateRange{}, domain.EstimateRange{}, nil
	}

	mult := clampMultiplier(categoryMultiplier(listings))
	units *= mult
	revenue *= mult

	level := InferLevel(listings)
	band := unitBands[level]

	var warnings []string
	if units < band.min || units > band.max {
		clamped := math.Min(math.Max(units, band.min), band.max)
		factor := clamped / units
		revenue *= factor

		w := fmt.Sprintf("calibration: units %.0f clamped to %.0f for %s market", units, clamped, level)
		warnings = append(warnings, w)
		c.logger.Warn("totals outside trust band",
			slog.String("level", string(level)),
			slog.Float64("raw_units", units),
			slog.Float64("clamped_units", clamped),
		)
		units = clamped
	}

	spread := rangeSpread[conf]
	if spread == 0 {
		spread = rangeSpread[domain.ConfidenceLow]
	}

	return widen(units, spread), widen(revenue, spread), warnings
}

// Validate checks the three product-set invariants and returns the violations
// as warning strings. Violations never abort: they are advisory signals that
// the model drifted, not request errors.
//
// The invariants: per-listing allocated units sum to the total within 1%; no
// single ASIN holds more than 35% of total units (50% when its brand is
// canonical); every listing's revenue equals units times price within 1%.
func (c *Calibrator) Validate(listings []domain.CanonicalListing, totalUnits float64) []string {
	var violations []string

	var sum float64
	for i := range listings {
		sum += listings[i].EstimatedUnits
	}
	if totalUnits > 0 && relDiff(sum, totalUnits) > 0.01 {
		violations = append(violations, fmt.Sprintf(
			"invariant: allocated units %.1f diverge from total %.1f", sum, totalUnits))
	}

	for i := range listings {
		l := &listings[i]
		if totalUnits > 0 && l.EstimatedUnits > 0 {
			share := l.EstimatedUnits / totalUnits
			limit := 0.35
			if l.BrandInfo.Status == domain.BrandCanonical {
				limit = 0.50
			}
			if share > limit {
				violations = append(violations, fmt.Sprintf(
					"invariant: %s holds %.0f%% of market units (cap %.0f%%)", l.ASIN, share*100, limit*100))
			}
		}

		if l.EstimatedUnits > 0 && l.Price.Present {
			want := l.EstimatedUnits * l.Price.Value
			if relDiff(l.EstimatedRevenue, want) > 0.01 {
				violations = append(violations, fmt.Sprintf(
					"invariant: %s revenue %.2f inconsistent with units*price %.2f", l.ASIN, l.EstimatedRevenue, want))
			}
		}
	}

	for _, v := range violations {
		c.logger.Warn("invariant violation", slog.String("detail", v))
	}
	return violations
}

// InferLevel derives the competition level from listing count, review-count
// dispersion, and sponsored density.
func InferLevel(listings []domain.CanonicalListing) Level {
	score := 0

	if len(listings) >= 16 {
		score++
	}

	sponsored := 0
	counts := make([]int, 0, len(listings))
	for i := range listings {
		if listings[i].Sponsored.AppearsSponsored {
			sponsored++
		}
		if listings[i].ReviewCount != nil {
			counts = append(counts, *listings[i].ReviewCount)
		}
	}
	if len(listings) > 0 && float64(sponsored)/float64(len(listings)) > 0.25 {
		score++
	}

	// A page where the review median is already in the thousands means
	// entrenched incumbents.
	if len(counts) > 0 {
		sort.Ints(counts)
		if counts[len(counts)/2] >= 1000 {
			score++
		}
	}

	switch score {
	case 0:
		return LevelEmerging
	case 1:
		return LevelContested
	default:
		return LevelSaturated
	}
}

// categoryMultiplier picks the multiplier of the page's dominant category
// bucket.
func categoryMultiplier(listings []domain.CanonicalListing) float64 {
	buckets := map[string]int{}
	for i := range listings {
		if !listings[i].Rank.Present {
			continue
		}
		if bucket, ok := estimate.NormalizeCategory(listings[i].Rank.Value.Category); ok {
			buckets[bucket]++
		}
	}

	best, bestN := "default", 0
	for b, n := range buckets {
		if n > bestN {
			best, bestN = b, n
		}
	}
	if m, ok := categoryMultipliers[best]; ok {
		return m
	}
	return 1.0
}

func clampMultiplier(m float64) float64 {
	return math.Min(math.Max(m, 0.8), 1.2)
}

func widen(point, spread float64) domain.EstimateRange {
	return domain.EstimateRange{
		Point: point,
		Low:   point * (1 - spread),
		High:  point * (1 + spread),
	}
}

func relDiff(a, b float64) float64 {
	if b == 0 {
		return math.Abs(a)
	}
	return math.Abs(a-b) / math.Abs(b)
}
