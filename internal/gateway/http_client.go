package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBody = 1 << 20

// HTTPClient talks to the remote REST API. Every call gets its own timeout.
// Only order creation goes through a circuit breaker: once an order exists its detail rows
// and stock updates are attempted one by one regardless of how earlier items fared.
// Catalog reads get their own breaker through Catalog.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	settings BreakerSettings
	orders   *gobreaker.CircuitBreaker[[]byte]
	catalog  *CatalogClient
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.client = c }
}

// WithBreaker configures both breakers. Names get a "-orders" and "-catalog" suffix.
func WithBreaker(s BreakerSettings) Option {
	return func(h *HTTPClient) { h.settings = s }
}

func NewHTTPClient(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	h := &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout:  timeout,
		settings: BreakerSettings{Name: "order-api", OpenTimeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.orders = newBreaker(h.settings.named("orders"))
	h.catalog = &CatalogClient{http: h, breaker: newBreaker(h.settings.named("catalog"))}
	return h
}

// Catalog returns the product reader used by browsing endpoints. Its breaker is separate
// from order creation, and checkout stock calls never go through it.
func (h *HTTPClient) Catalog() *CatalogClient {
	return h.catalog
}

// CatalogClient reads products through its own circuit breaker.
type CatalogClient struct {
	http    *HTTPClient
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// GET /obat/{id}
func (c *CatalogClient) GetProductByID(ctx context.Context, id int64) (domain.ProductStockRecord, error) {
	op := fmt.Sprintf("get product %d", id)
	body, err := c.http.guarded(ctx, c.breaker, op, http.MethodGet, productPath(id), nil)
	if err != nil {
		return domain.ProductStockRecord{}, err
	}
	return decodeProduct(op, body)
}

// POST /pesanan/
func (h *HTTPClient) CreateOrder(ctx context.Context, header domain.OrderHeader) (*CreatedOrder, error) {
	body, err := h.guarded(ctx, h.orders, "create order", http.MethodPost, "/pesanan/", newOrderHeaderRequest(header))
	if err != nil {
		return nil, err
	}
	return &CreatedOrder{ID: idFrom(body, "pesanan_id", "id"), Raw: body}, nil
}

// POST /detail-pesanan/
func (h *HTTPClient) CreateOrderDetail(ctx context.Context, item domain.OrderLineItem) (*CreatedDetail, error) {
	body, err := h.do(ctx, "create order detail", http.MethodPost, "/detail-pesanan/", item)
	if err != nil {
		return nil, err
	}
	return &CreatedDetail{ID: idFrom(body, "detail_pesanan_id", "id"), Raw: body}, nil
}

// GET /obat/{id}
func (h *HTTPClient) GetProductByID(ctx context.Context, id int64) (domain.ProductStockRecord, error) {
	op := fmt.Sprintf("get product %d", id)
	body, err := h.do(ctx, op, http.MethodGet, productPath(id), nil)
	if err != nil {
		return domain.ProductStockRecord{}, err
	}
	return decodeProduct(op, body)
}

func decodeProduct(op string, body []byte) (domain.ProductStockRecord, error) {
	var rec domain.ProductStockRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return domain.ProductStockRecord{}, &RemoteError{Op: op, Err: fmt.Errorf("decode product: %w", err)}
	}
	return rec, nil
}

// PUT /obat/{id}. The remote API has no partial update, so record must be complete.
func (h *HTTPClient) UpdateProduct(ctx context.Context, id int64, record domain.ProductStockRecord) (domain.ProductStockRecord, error) {
	op := fmt.Sprintf("update product %d", id)
	body, err := h.do(ctx, op, http.MethodPut, productPath(id), record)
	if err != nil {
		return domain.ProductStockRecord{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return record, nil
	}
	var updated domain.ProductStockRecord
	if err := json.Unmarshal(body, &updated); err != nil {
		return domain.ProductStockRecord{}, &RemoteError{Op: op, Err: fmt.Errorf("decode product: %w", err)}
	}
	return updated, nil
}

func productPath(id int64) string {
	return "/obat/" + strconv.FormatInt(id, 10)
}

func (h *HTTPClient) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel() // releases resources if the call completes before timeout elapses

	return h.roundTrip(callCtx, op, method, path, payload)
}

func (h *HTTPClient) guarded(ctx context.Context, cb *gobreaker.CircuitBreaker[[]byte], op, method, path string, payload any) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	body, err := cb.Execute(func() ([]byte, error) {
		return h.roundTrip(callCtx, op, method, path, payload)
	})
	if err != nil {
		if isBreakerRejection(err) {
			return nil, &RemoteError{Op: op, Err: err}
		}
		return nil, err
	}
	return body, nil
}

func (h *HTTPClient) roundTrip(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &RemoteError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
