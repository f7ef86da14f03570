package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ascendly/marketsnap/internal/domain"
)

// SnapshotService defines what the snapshot handler requires from the
// aggregation layer. Declared locally so the handler package does not depend
// on the concrete service implementation.
type SnapshotService interface {
	Aggregate(ctx context.Context, req domain.AggregateRequest) (domain.MarketSnapshot, domain.CacheStatus, error)
}

// SnapshotArchive is the optional read side of the snapshot store.
type SnapshotArchive interface {
	Get(ctx context.Context, snapshotID string) (domain.MarketSnapshot, error)
	ListRecent(ctx context.Context, marketplace string, limit int) ([]domain.MarketSnapshot, error)
}

// SnapshotHandler serves snapshot computation and archive endpoints.
type SnapshotHandler struct {
	service SnapshotService
	archive SnapshotArchive // nil when no store is configured
	logger  *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler. archive may be nil.
func NewSnapshotHandler(service SnapshotService, archive SnapshotArchive, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		service: service,
		archive: archive,
		logger:  logHandler(logger, "snapshot"),
	}
}

// snapshotRequest is the POST body shape. The GET variant reads the same
// fields from the query string.
type snapshotRequest struct {
	Keyword     string `json:"keyword"`
	Marketplace string `json:"marketplace"`
	Seller      struct {
		Stage            string `json:"stage"`
		ExperienceMonths int    `json:"experience_months"`
	} `json:"seller"`
}

// GetSnapshot computes or returns the cached snapshot for a keyword.
// GET /api/snapshot?keyword=garlic+press&marketplace=us&seller_stage=new
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var req snapshotRequest
	req.Keyword = q.Get("keyword")
	req.Marketplace = q.Get("marketplace")
	req.Seller.Stage = q.Get("seller_stage")

	h.aggregate(w, r, req)
}

// PostSnapshot computes or returns the cached snapshot for a keyword, with
// the full request shape in the body.
// POST /api/snapshot
func (h *SnapshotHandler) PostSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.aggregate(w, r, req)
}

func (h *SnapshotHandler) aggregate(w http.ResponseWriter, r *http.Request, req snapshotRequest) {
	if strings.TrimSpace(req.Keyword) == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	if strings.TrimSpace(req.Marketplace) == "" {
		req.Marketplace = "us"
	}

	stage, err := domain.ParseSellerStage(req.Seller.Stage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, status, err := h.service.Aggregate(r.Context(), domain.AggregateRequest{
		Keyword:     req.Keyword,
		Marketplace: req.Marketplace,
		Seller: domain.SellerContext{
			Stage:            stage,
			ExperienceMonths: req.Seller.ExperienceMonths,
		},
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "aggregate failed",
			slog.String("keyword", req.Keyword),
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), "snapshot computation failed")
		return
	}

	w.Header().Set("X-Cache", string(status))
	writeJSON(w, http.StatusOK, snap)
}

// GetArchived returns one archived snapshot by ID.
// GET /api/snapshots/{id}
func (h *SnapshotHandler) GetArchived(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "snapshot archive not configured")
		return
	}

	snap, err := h.archive.Get(r.Context(), pathParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "archive get failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListRecent returns the newest archived snapshots for a marketplace.
// GET /api/snapshots/recent?marketplace=us&limit=20
func (h *SnapshotHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "snapshot archive not configured")
		return
	}

	marketplace := r.URL.Query().Get("marketplace")
	if marketplace == "" {
		marketplace = "us"
	}
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	snaps, err := h.archive.ListRecent(r.Context(), marketplace, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "archive list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": snaps,
		"count":     len(snaps),
	})
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBudgetExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrExtractionFailed),
		errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
