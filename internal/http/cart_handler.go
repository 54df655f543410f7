package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/catalog"
	"github.com/fjod/go_cart/order-placement/internal/logger"
	"github.com/shopspring/decimal"
)

type CartStore interface {
	Load(ctx context.Context, customerID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, customerID int64, item domain.CartItem) (*domain.Cart, error)
	ClearCart(ctx context.Context, customerID int64) error
}

type CartHandler struct {
	store   CartStore
	catalog ProductCatalog
	timeout time.Duration
}

func NewCartHandler(store CartStore, c ProductCatalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		store:   store,
		catalog: c,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CartResponseDTO struct {
	CustomerID int64             `json:"customer_id"`
	Items      []domain.CartItem `json:"items"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func newCartResponse(cart *domain.Cart) CartResponseDTO {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartResponseDTO{
		CustomerID: cart.CustomerID,
		Items:      items,
		Subtotal:   cart.Subtotal(),
		UpdatedAt:  cart.UpdatedAt,
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := getCustomerIDFromContext(r.Context())
	cart, err := h.store.Load(ctx, customerID)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("failed to load cart")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := getCustomerIDFromContext(r.Context())

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	item, err := h.catalog.CartItemFor(ctx, req.ProductID, req.Quantity)
	switch {
	case errors.Is(err, catalog.ErrOutOfStock), errors.Is(err, catalog.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", err.Error())
		return
	case errors.Is(err, catalog.ErrProductUnavailable):
		respondError(w, http.StatusUnprocessableEntity, "product_unavailable", err.Error())
		return
	case err != nil:
		handleRemoteError(w, err)
		return
	}

	cart, err := h.store.AddItem(ctx, customerID, item)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Int64("product_id", req.ProductID).Msg("failed to add cart item")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(cart))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.ClearCart(ctx, getCustomerIDFromContext(r.Context())); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("failed to clear cart")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
