package canonical

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

func floatp(f float64) *float64 { return &f }

func TestBuild_DeduplicatesAndKeepsSponsoredMeta(t *testing.T) {
	rows := []domain.RawListing{
		{ASIN: "B0ALPHA001", Position: 1, Sponsored: true, Title: strp("Garlic Press Pro")},
		{ASIN: "B0BETA0002", Position: 2, Price: floatp(12.99)},
		{ASIN: "B0ALPHA001", Position: 8, Price: floatp(24.99)},
	}
	sponsored := map[string]domain.SponsoredMeta{
		"B0ALPHA001": {AppearsSponsored: true, SponsoredPositions: []int{1}},
	}

	listings := NewBuilder(discard()).Build(rows, sponsored)
	require.Len(t, listings, 2)

	alpha := listings[0]
	assert.Equal(t, "B0ALPHA001", alpha.ASIN)
	assert.True(t, alpha.Sponsored.AppearsSponsored)
	assert.Equal(t, []int{1}, alpha.Sponsored.SponsoredPositions)

	// The sponsored row at slot 1 contributes no organic rank; the organic
	// duplicate at slot 8 does.
	assert.Equal(t, 8, alpha.OrganicPosition)

	// The duplicate filled the missing price without touching the title.
	require.True(t, alpha.Price.Present)
	assert.InDelta(t, 24.99, alpha.Price.Value, 1e-9)
	assert.Equal(t, "Garlic Press Pro", alpha.Title.Value)
	assert.Equal(t, domain.SourcePrimary, alpha.Price.Source)
}

func TestBuild_SponsoredOnlyListingHasNoOrganicPosition(t *testing.T) {
	rows := []domain.RawListing{
		{ASIN: "B0ALPHA001", Position: 3, Sponsored: true},
	}
	listings := NewBuilder(discard()).Build(rows, map[string]domain.SponsoredMeta{
		"B0ALPHA001": {AppearsSponsored: true, SponsoredPositions: []int{3}},
	})

	require.Len(t, listings, 1)
	assert.Equal(t, 0, listings[0].OrganicPosition)
}

func TestBuild_MissingFieldsStayUnavailable(t *testing.T) {
	rows := []domain.RawListing{{ASIN: "B0ALPHA001", Position: 1}}
	listings := NewBuilder(discard()).Build(rows, nil)

	require.Len(t, listings, 1)
	l := listings[0]
	assert.False(t, l.Title.Present)
	assert.Equal(t, domain.SourceUnavailable, l.Title.Source)
	assert.False(t, l.Price.Present)
	assert.False(t, l.Rank.Present)
	assert.Equal(t, domain.FulfillmentUnknown, l.Fulfillment.Value)
}

func TestResolveFulfillment(t *testing.T) {
	tests := []struct {
		name     string
		row      domain.RawListing
		wantCh   domain.FulfillmentChannel
		wantConf domain.Confidence
	}{
		{
			name:     "prime plus delivery confirmation is high",
			row:      domain.RawListing{PrimeEligible: true, DeliveryText: strp("Fulfilled by Amazon")},
			wantCh:   domain.FulfillmentFBA,
			wantConf: domain.ConfidenceHigh,
		},
		{
			name:     "delivery text alone is medium",
			row:      domain.RawListing{DeliveryText: strp("Ships from Amazon")},
			wantCh:   domain.FulfillmentFBA,
			wantConf: domain.ConfidenceMedium,
		},
		{
			name:     "merchant delivery text",
			row:      domain.RawListing{DeliveryText: strp("Ships from and sold by KitchenKraft")},
			wantCh:   domain.FulfillmentFBM,
			wantConf: domain.ConfidenceMedium,
		},
		{
			name:     "no signal stays unknown",
			row:      domain.RawListing{},
			wantCh:   domain.FulfillmentUnknown,
			wantConf: domain.ConfidenceUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFulfillment(&tt.row)
			assert.Equal(t, tt.wantCh, got.Value)
			assert.Equal(t, tt.wantConf, got.Confidence)
		})
	}
}
