package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Products   *ProductHandler
	Cart       *CartHandler
	Checkout   *CheckoutHandler
	Placements *PlacementsHandler
}

// NewRouter builds the chi router and wraps it for server-side tracing.
func NewRouter(cfg RouterConfig, h Handlers, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(log))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/{product_id}", h.Products.Get)

		r.Group(func(r chi.Router) {
			r.Use(CustomerMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/items", h.Cart.AddItem)
				r.Delete("/", h.Cart.ClearCart)
			})
			r.Post("/checkout", h.Checkout.PlaceOrder)
			if h.Placements != nil {
				r.Get("/placements", h.Placements.List)
				r.Get("/placements/{attempt_id}", h.Placements.Get)
			}
		})
	})

	return otelhttp.NewHandler(r, "order-placement")
}
