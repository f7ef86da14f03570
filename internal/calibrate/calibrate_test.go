package calibrate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendly/marketsnap/internal/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intp(n int) *int { return &n }

func quietPage(n int) []domain.CanonicalListing {
	out := make([]domain.CanonicalListing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.CanonicalListing{ReviewCount: intp(40)})
	}
	return out
}

func hotPage(n int) []domain.CanonicalListing {
	out := make([]domain.CanonicalListing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.CanonicalListing{
			ReviewCount: intp(4000),
			Sponsored:   domain.SponsoredMeta{AppearsSponsored: i%2 == 0},
		})
	}
	return out
}

func TestInferLevel(t *testing.T) {
	assert.Equal(t, LevelEmerging, InferLevel(quietPage(8)))
	assert.Equal(t, LevelContested, InferLevel(quietPage(20)))
	assert.Equal(t, LevelSaturated, InferLevel(hotPage(20)))
}

func TestCalibrate_ClampsIntoTrustBand(t *testing.T) {
	c := New(discard())

	// A modeled 2M units on an emerging page is far outside the band.
	units, revenue, warnings := c.Calibrate(quietPage(8), 2_000_000, 40_000_000, domain.ConfidenceHigh)

	require.NotEmpty(t, warnings)
	assert.InDelta(t, 40000, units.Point, 1e-6)
	// Revenue scales by the same factor, keeping the implied price intact.
	assert.InDelta(t, 20.0, revenue.Point/units.Point, 1e-6)
}

func TestCalibrate_InBandPassesThrough(t *testing.T) {
	c := New(discard())

	units, _, warnings := c.Calibrate(quietPage(8), 5000, 100000, domain.ConfidenceHigh)

	assert.Empty(t, warnings)
	// Only the soft category multiplier moves the point, and it is bounded.
	assert.GreaterOrEqual(t, units.Point, 5000*0.8)
	assert.LessOrEqual(t, units.Point, 5000*1.2)
}

func TestCalibrate_RangeWidthTracksConfidence(t *testing.T) {
	c := New(discard())

	high, _, _ := c.Calibrate(quietPage(8), 5000, 100000, domain.ConfidenceHigh)
	low, _, _ := c.Calibrate(quietPage(8), 5000, 100000, domain.ConfidenceLow)

	assert.InDelta(t, 0.90, high.Low/high.Point, 1e-9)
	assert.InDelta(t, 1.10, high.High/high.Point, 1e-9)
	assert.InDelta(t, 0.65, low.Low/low.Point, 1e-9)
	assert.InDelta(t, 1.35, low.High/low.Point, 1e-9)
}

func TestCalibrate_ZeroUnits(t *testing.T) {
	units, revenue, warnings := New(discard()).Calibrate(quietPage(8), 0, 0, domain.ConfidenceLow)

	assert.Zero(t, units)
	assert.Zero(t, revenue)
	assert.Empty(t, warnings)
}

func TestValidate_CleanSetHasNoViolations(t *testing.T) {
	listings := []domain.CanonicalListing{
		{ASIN: "A", EstimatedUnits: 300, EstimatedRevenue: 6000,
			Price: domain.NewField(20.0, domain.SourceSecondary, domain.ConfidenceHigh)},
		{ASIN: "B", EstimatedUnits: 700, EstimatedRevenue: 7000,
			Price: domain.NewField(10.0, domain.SourceSecondary, domain.ConfidenceHigh)},
	}

	violations := New(discard()).Validate(listings, 1000)
	assert.Empty(t, violations)
}

func TestValidate_AllocationDrift(t *testing.T) {
	listings := []domain.CanonicalListing{
		{ASIN: "A", EstimatedUnits: 300},
		{ASIN: "B", EstimatedUnits: 300},
	}

	violations := New(discard()).Validate(listings, 1000)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "diverge from total")
}

func TestValidate_ShareCapDependsOnBrandStatus(t *testing.T) {
	dominant := domain.CanonicalListing{ASIN: "BIG", EstimatedUnits: 450}
	rest := domain.CanonicalListing{ASIN: "REST", EstimatedUnits: 550}

	// 45% share with a non-canonical brand breaches the 35% cap.
	violations := New(discard()).Validate([]domain.CanonicalListing{dominant, rest}, 1000)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "BIG")

	// The same share under a canonical brand is allowed up to 50%.
	dominant.BrandInfo = domain.BrandResolution{RawBrand: "Big", NormalizedBrand: "big", Status: domain.BrandCanonical}
	violations = New(discard()).Validate([]domain.CanonicalListing{dominant, rest}, 1000)
	assert.Empty(t, violations)
}

func TestValidate_RevenueConsistency(t *testing.T) {
	listings := []domain.CanonicalListing{
		{ASIN: "A", EstimatedUnits: 100, EstimatedRevenue: 5000, // should be 2000
			Price: domain.NewField(20.0, domain.SourceSecondary, domain.ConfidenceHigh)},
	}

	violations := New(discard()).Validate(listings, 100)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "revenue")
}
