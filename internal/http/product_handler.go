package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type ProductCatalog interface {
	GetProductDetail(ctx context.Context, id int64) (*catalog.ProductDetail, error)
	CartItemFor(ctx context.Context, id int64, quantity int) (domain.CartItem, error)
}

type ProductHandler struct {
	catalog ProductCatalog
	timeout time.Duration
}

func NewProductHandler(c ProductCatalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		timeout: timeout,
	}
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	detail, err := h.catalog.GetProductDetail(ctx, productID)
	if err != nil {
		handleRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}
