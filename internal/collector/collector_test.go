package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendly/marketsnap/internal/domain"
)

type stubProvider struct {
	result domain.SearchResult
	err    error
	calls  int
}

func (s *stubProvider) Search(_ context.Context, _, _ string, _ int) (domain.SearchResult, error) {
	s.calls++
	return s.result, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func row(asin string, pos int, sponsored bool) domain.RawListing {
	return domain.RawListing{ASIN: asin, Position: pos, Sponsored: sponsored}
}

func TestCollect_SponsoredMetaComputedBeforeDedup(t *testing.T) {
	// The same ASIN appears twice: once sponsored at slot 1, once organic at
	// slot 7. Sponsored-ness belongs to the ASIN, not the row.
	provider := &stubProvider{result: domain.SearchResult{Rows: []domain.RawListing{
		row("B0ALPHA001", 1, true),
		row("B0BETA0002", 2, false),
		row("B0ALPHA001", 7, false),
	}}}
	c := New(provider, discard())

	res, err := c.Collect(context.Background(), "garlic press", "us", 1, domain.NewCallBudget(5))
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	meta := res.Sponsored["B0ALPHA001"]
	assert.True(t, meta.AppearsSponsored)
	assert.Equal(t, []int{1}, meta.SponsoredPositions)

	assert.False(t, res.Sponsored["B0BETA0002"].AppearsSponsored)
}

func TestCollect_DropsRowsWithoutASIN(t *testing.T) {
	provider := &stubProvider{result: domain.SearchResult{Rows: []domain.RawListing{
		row("B0ALPHA001", 1, false),
		row("", 2, true),
	}}}
	c := New(provider, discard())

	res, err := c.Collect(context.Background(), "garlic press", "us", 1, domain.NewCallBudget(5))
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
	assert.Equal(t, 1, res.Dropped)
}

func TestCollect_EmptyPageIsNotAnError(t *testing.T) {
	provider := &stubProvider{result: domain.SearchResult{}}
	c := New(provider, discard())

	res, err := c.Collect(context.Background(), "xyzzy plugh", "us", 1, domain.NewCallBudget(5))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestCollect_AllRowsUnusableIsExtractionFailure(t *testing.T) {
	provider := &stubProvider{result: domain.SearchResult{Rows: []domain.RawListing{
		row("", 1, false),
		row("", 2, false),
	}}}
	c := New(provider, discard())

	_, err := c.Collect(context.Background(), "garlic press", "us", 1, domain.NewCallBudget(5))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestCollect_ChargesBudgetBeforeCalling(t *testing.T) {
	provider := &stubProvider{result: domain.SearchResult{}}
	c := New(provider, discard())

	budget := domain.NewCallBudget(0)
	_, err := c.Collect(context.Background(), "garlic press", "us", 1, budget)
	assert.ErrorIs(t, err, domain.ErrBudgetExhausted)
	assert.Equal(t, 0, provider.calls)
}

func TestCollect_ProviderErrorPropagates(t *testing.T) {
	provider := &stubProvider{err: domain.ErrProviderUnavailable}
	c := New(provider, discard())

	budget := domain.NewCallBudget(5)
	_, err := c.Collect(context.Background(), "garlic press", "us", 1, budget)
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))

	// The charge is not refunded; the call was issued.
	count, _, _ := budget.Stats()
	assert.Equal(t, 1, count)
}
