package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/order-placement/internal/logger"
	"github.com/fjod/go_cart/order-placement/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PlacementHistory interface {
	GetPlacement(ctx context.Context, attemptID uuid.UUID) (*repository.PlacementRecord, error)
	ListPlacementsByCustomer(ctx context.Context, customerID int64, limit int) ([]*repository.PlacementRecord, error)
}

type PlacementsHandler struct {
	history PlacementHistory
	timeout time.Duration
}

func NewPlacementsHandler(history PlacementHistory, timeout time.Duration) *PlacementsHandler {
	return &PlacementsHandler{
		history: history,
		timeout: timeout,
	}
}

// GET /api/v1/placements?limit=20
func (h *PlacementsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	records, err := h.history.ListPlacementsByCustomer(ctx, getCustomerIDFromContext(r.Context()), limit)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("failed to list placements")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list placements")
		return
	}
	if records == nil {
		records = []*repository.PlacementRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"placements": records})
}

// GET /api/v1/placements/{attempt_id}
func (h *PlacementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	attemptID, err := uuid.Parse(chi.URLParam(r, "attempt_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_attempt_id", "attempt_id must be a UUID")
		return
	}

	record, err := h.history.GetPlacement(ctx, attemptID)
	if errors.Is(err, repository.ErrPlacementNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "placement not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("failed to get placement")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get placement")
		return
	}
	// placements of other customers are reported as missing
	if record.CustomerID != getCustomerIDFromContext(r.Context()) {
		respondError(w, http.StatusNotFound, "not_found", "placement not found")
		return
	}
	respondJSON(w, http.StatusOK, record)
}
