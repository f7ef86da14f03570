package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendly/marketsnap/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "test-key", 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestLookup_PartialSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req apiLookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"B0ALPHA001", "B0BETA0002"}, req.ASINs)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Write([]byte(`{
			"products": {
				"B0ALPHA001": {
					"title": "Garlic Press Pro",
					"brand": "PressCo",
					"price": 22.5,
					"fulfillment_channel": "AMAZON_NA",
					"sales_ranks": [
						{"rank": 412, "category": "Home & Kitchen > Kitchen Utensils"},
						{"rank": 9101, "category": "Home & Kitchen"}
					]
				}
			},
			"errors": [{"asin": "B0BETA0002", "message": "not in catalog"}]
		}`))
	})

	res, err := c.Lookup(context.Background(), "us", []string{"B0ALPHA001", "B0BETA0002"})
	require.NoError(t, err)

	require.Contains(t, res.Items, "B0ALPHA001")
	item := res.Items["B0ALPHA001"]
	assert.Equal(t, "B0ALPHA001", item.ASIN)
	require.NotNil(t, item.Fulfillment)
	assert.Equal(t, string(domain.FulfillmentFBA), *item.Fulfillment)

	rank, ok := item.MainRank()
	require.True(t, ok)
	assert.Equal(t, 9101, rank.Rank, "main rank comes from the shortest category path")

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "B0BETA0002", res.Failed[0].ASIN)
}

func TestLookup_NoRankEntriesLeavesRankAbsent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": {"B0GAMMA003": {"title": "Widget", "sales_ranks": []}}}`))
	})

	res, err := c.Lookup(context.Background(), "us", []string{"B0GAMMA003"})
	require.NoError(t, err)

	item := res.Items["B0GAMMA003"]
	_, ok := item.MainRank()
	assert.False(t, ok, "a catalog hit with no rank must never yield a guessed rank")
}

func TestLookup_UnknownFulfillmentVocabulary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": {"B0GAMMA003": {"fulfillment_channel": "WAREHOUSE_X"}}}`))
	})

	res, err := c.Lookup(context.Background(), "us", []string{"B0GAMMA003"})
	require.NoError(t, err)
	assert.Nil(t, res.Items["B0GAMMA003"].Fulfillment, "unrecognized channel degrades to absent")
}

func TestLookup_ForbiddenIsPermissionDenied(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pricing tier not enabled", http.StatusForbidden)
	})

	_, err := c.Lookup(context.Background(), "us", []string{"B0ALPHA001"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestLookup_RejectsOversizedBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	asins := make([]string, MaxBatchSize+1)
	for i := range asins {
		asins[i] = "B0000000"
	}
	_, err := c.Lookup(context.Background(), "us", asins)
	assert.Error(t, err)
}

func TestLookup_EmptyBatchShortCircuits(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	res, err := c.Lookup(context.Background(), "us", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.False(t, called)
}
