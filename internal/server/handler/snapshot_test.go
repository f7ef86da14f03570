package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendly/marketsnap/internal/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeService struct {
	got    domain.AggregateRequest
	snap   domain.MarketSnapshot
	status domain.CacheStatus
	err    error
}

func (f *fakeService) Aggregate(_ context.Context, req domain.AggregateRequest) (domain.MarketSnapshot, domain.CacheStatus, error) {
	f.got = req
	return f.snap, f.status, f.err
}

func TestGetSnapshot(t *testing.T) {
	svc := &fakeService{
		snap:   domain.MarketSnapshot{SnapshotID: "abc", Keyword: "garlic press"},
		status: domain.CacheHit,
	}
	h := NewSnapshotHandler(svc, nil, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot?keyword=garlic+press&marketplace=us&seller_stage=new", nil)
	rec := httptest.NewRecorder()
	h.GetSnapshot(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, domain.SellerNew, svc.got.Seller.Stage)

	var snap domain.MarketSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "abc", snap.SnapshotID)
}

func TestGetSnapshot_MissingKeyword(t *testing.T) {
	h := NewSnapshotHandler(&fakeService{}, nil, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	rec := httptest.NewRecorder()
	h.GetSnapshot(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSnapshot_InvalidStage(t *testing.T) {
	h := NewSnapshotHandler(&fakeService{}, nil, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot?keyword=x&seller_stage=wizard", nil)
	rec := httptest.NewRecorder()
	h.GetSnapshot(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostSnapshot(t *testing.T) {
	svc := &fakeService{status: domain.CacheMiss}
	h := NewSnapshotHandler(svc, nil, discard())

	body := `{"keyword":"spice rack","marketplace":"uk","seller":{"stage":"scaling","experience_months":24}}`
	req := httptest.NewRequest(http.MethodPost, "/api/snapshot", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.PostSnapshot(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spice rack", svc.got.Keyword)
	assert.Equal(t, "uk", svc.got.Marketplace)
	assert.Equal(t, domain.SellerScaling, svc.got.Seller.Stage)
	assert.Equal(t, 24, svc.got.Seller.ExperienceMonths)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, statusFor(domain.ErrBudgetExhausted))
	assert.Equal(t, http.StatusBadGateway, statusFor(domain.ErrProviderUnavailable))
	assert.Equal(t, http.StatusBadGateway, statusFor(domain.ErrExtractionFailed))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}

func TestGetArchived_NoStore(t *testing.T) {
	h := NewSnapshotHandler(&fakeService{}, nil, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshots/abc", nil)
	rec := httptest.NewRecorder()
	h.GetArchived(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
