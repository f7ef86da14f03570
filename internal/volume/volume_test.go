package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ascendly/marketsnap/internal/domain"
)

func intp(n int) *int { return &n }

func page(n, sponsored, avgReviews int) []domain.CanonicalListing {
	out := make([]domain.CanonicalListing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.CanonicalListing{
			ReviewCount: intp(avgReviews),
			Sponsored:   domain.SponsoredMeta{AppearsSponsored: i < sponsored},
		})
	}
	return out
}

func TestEstimate_ZeroListingsUnavailable(t *testing.T) {
	est := Estimate("garlic press", nil)

	assert.False(t, est.Available)
	assert.Zero(t, est.Low)
	assert.Zero(t, est.High)
}

func TestEstimate_AlwaysRangeNeverPoint(t *testing.T) {
	est := Estimate("garlic press", page(10, 0, 300))

	assert.True(t, est.Available)
	assert.Less(t, est.Low, est.High)
	// [0.7x, 1.3x] around the point estimate
	assert.InDelta(t, float64(est.High)/float64(est.Low), 1.3/0.7, 0.01)
}

func TestEstimate_ReviewBandsScaleVolume(t *testing.T) {
	sleepy := Estimate("phone mount", page(10, 0, 50))
	mature := Estimate("phone mount", page(10, 0, 2000))

	// 2.0 band vs 0.8 band on otherwise identical pages.
	assert.InDelta(t, 2.0/0.8, float64(mature.High)/float64(sleepy.High), 0.01)
}

func TestEstimate_SponsoredBump(t *testing.T) {
	calm := Estimate("phone mount", page(10, 3, 300))    // 30%: not above threshold
	bidding := Estimate("phone mount", page(10, 4, 300)) // 40%: bumped

	assert.InDelta(t, 1.25, float64(bidding.High)/float64(calm.High), 0.01)
}

func TestEstimate_CategoryConfidence(t *testing.T) {
	inferred := Estimate("collagen protein powder", page(10, 0, 300))
	opaque := Estimate("xzqv gadget", page(10, 0, 300))

	assert.Equal(t, domain.ConfidenceMedium, inferred.Confidence)
	assert.Equal(t, "consumable", inferred.Category)

	assert.Equal(t, domain.ConfidenceLow, opaque.Confidence)
	assert.Empty(t, opaque.Category)
	assert.True(t, opaque.Available, "unrecognized keyword still yields a range")
}

func TestEstimate_Deterministic(t *testing.T) {
	a := Estimate("spice rack organizer", page(12, 2, 800))
	b := Estimate("spice rack organizer", page(12, 2, 800))
	assert.Equal(t, a, b)
}
