package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/gateway"
	"github.com/fjod/go_cart/order-placement/internal/logger"
	"github.com/fjod/go_cart/order-placement/internal/service"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	checkout     service.CheckoutService
	carts        CartStore
	timeout      time.Duration
	writeTimeout time.Duration
}

// NewCheckoutHandler builds the checkout handler. timeout bounds the work before the order
// exists; writeTimeout is how long the response may take in total, per-item calls included.
func NewCheckoutHandler(checkout service.CheckoutService, carts CartStore, timeout, writeTimeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:     checkout,
		carts:        carts,
		timeout:      timeout,
		writeTimeout: writeTimeout,
	}
}

type CheckoutResponseDTO struct {
	AttemptID         string               `json:"attempt_id"`
	OrderID           int64                `json:"order_id"`
	TotalPrice        decimal.Decimal      `json:"total_price"`
	ShippingFee       decimal.Decimal      `json:"shipping_fee"`
	TotalWithShipping decimal.Decimal      `json:"total_with_shipping"`
	Status            string               `json:"status"`
	RedirectTo        string               `json:"redirect_to"`
	RedirectAfterMs   int64                `json:"redirect_after_ms"`
	Failures          []domain.ItemFailure `json:"failures"`
}

type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string]string   `json:"fields,omitempty"`
	Items  []service.ItemIssue `json:"items,omitempty"`
}

// POST /api/v1/checkout
//
// The body is the shipping form; the cart comes from the cart store.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := getCustomerIDFromContext(r.Context())

	var shipping domain.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.carts.Load(ctx, customerID)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("failed to load cart for checkout")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	h.extendWriteDeadline(ctx, w)

	placement, err := h.checkout.PlaceOrder(ctx, cart.Items, shipping, customerID)
	if err != nil {
		h.handlePlacementError(w, err)
		return
	}

	failures := placement.Failures()
	if failures == nil {
		failures = []domain.ItemFailure{}
	}
	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		AttemptID:         placement.AttemptID.String(),
		OrderID:           placement.OrderID,
		TotalPrice:        placement.TotalPrice,
		ShippingFee:       placement.ShippingFee,
		TotalWithShipping: placement.TotalWithShipping,
		Status:            placement.Status.String(),
		RedirectTo:        placement.Redirect.Target,
		RedirectAfterMs:   placement.Redirect.After.Milliseconds(),
		Failures:          failures,
	})
}

// extendWriteDeadline keeps the connection writable until the placement result is ready.
func (h *CheckoutHandler) extendWriteDeadline(ctx context.Context, w http.ResponseWriter) {
	if h.writeTimeout <= 0 {
		return
	}
	err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(h.writeTimeout))
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to extend write deadline")
	}
}

func (h *CheckoutHandler) handlePlacementError(w http.ResponseWriter, err error) {
	var validation *service.ValidationError
	var header *service.HeaderCreationError
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Code:   "validation_failed",
			Fields: validation.Fields,
			Items:  validation.Items,
		})
	case errors.Is(err, service.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "submission_in_flight", err.Error())
	case errors.Is(err, service.ErrMissingOrderID):
		respondError(w, http.StatusBadGateway, "order_not_created", err.Error())
	case errors.As(err, &header):
		// A 4xx from the order endpoint still means no order was created.
		if re, ok := gateway.AsRemoteError(header.Err); ok && re.Status >= 400 && re.Status < 500 {
			respondError(w, http.StatusBadGateway, "order_not_created", header.Error())
			return
		}
		handleRemoteError(w, header.Err)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
