package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteAPI serves the order/product endpoints with failing detail creation.
type remoteAPI struct {
	mu      sync.Mutex
	details int
	puts    map[string]string
}

func (a *remoteAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/pesanan/":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"pesanan_id": 77}`)
	case r.Method == http.MethodPost && r.URL.Path == "/detail-pesanan/":
		a.details++
		w.WriteHeader(http.StatusInternalServerError)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/obat/"):
		id := strings.TrimPrefix(r.URL.Path, "/obat/")
		_, _ = fmt.Fprintf(w, `{"obat_id": %s, "nama_obat": "obat %s", "stok": 10}`, id, id)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/obat/"):
		body, _ := io.ReadAll(r.Body)
		a.puts[strings.TrimPrefix(r.URL.Path, "/obat/")] = string(body)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *remoteAPI) snapshot() (int, map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	puts := make(map[string]string, len(a.puts))
	for k, v := range a.puts {
		puts[k] = v
	}
	return a.details, puts
}

func TestPlaceOrder_FailingDetailEndpointDoesNotBlockStockUpdates(t *testing.T) {
	api := &remoteAPI{puts: map[string]string{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := gateway.NewHTTPClient(srv.URL, time.Second,
		gateway.WithHTTPClient(srv.Client()),
		gateway.WithBreaker(gateway.BreakerSettings{Name: "test", MaxFailures: 5, OpenTimeout: time.Minute}))
	svc := NewCheckoutService(client, &MockCartClearer{}, &MockRecorder{}, testOptions())

	var cart []domain.CartItem
	for id := int64(1); id <= 8; id++ {
		cart = append(cart, item(id, "1000", 2))
	}

	placement, err := svc.PlaceOrder(context.Background(), cart, validShipping(), 3)
	require.NoError(t, err)

	details, puts := api.snapshot()
	assert.Equal(t, int64(77), placement.OrderID)
	assert.Equal(t, 8, details)
	assert.Len(t, puts, 8)

	require.Len(t, placement.LineItems, 8)
	for _, r := range placement.LineItems {
		require.Error(t, r.Err)
		assert.NotContains(t, r.Err.Error(), "circuit breaker")
	}
	require.Len(t, placement.Stock, 8)
	for _, r := range placement.Stock {
		require.NoError(t, r.Err)
		assert.Equal(t, int64(10), r.PreviousStock)
		assert.Equal(t, int64(8), r.NewStock)
	}
	assert.Contains(t, puts["8"], `"stok":8`)
}

func TestPlaceOrder_ItemsBudgetBoundsSlowUpstream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pesanan/" {
			_, _ = io.WriteString(w, `{"pesanan_id": 78}`)
			return
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := gateway.NewHTTPClient(srv.URL, 5*time.Second, gateway.WithHTTPClient(srv.Client()))
	opts := testOptions()
	opts.ItemsBudget = 100 * time.Millisecond
	clearer := &MockCartClearer{}
	svc := NewCheckoutService(client, clearer, &MockRecorder{}, opts)

	cart := []domain.CartItem{item(1, "1000", 1), item(2, "1000", 1), item(3, "1000", 1)}
	started := time.Now()
	placement, err := svc.PlaceOrder(context.Background(), cart, validShipping(), 3)
	require.NoError(t, err)

	assert.Less(t, time.Since(started), 3*time.Second)
	assert.Equal(t, int64(78), placement.OrderID)
	assert.Equal(t, domain.PlacementStatusCompleted, placement.Status)
	assert.Equal(t, []int64{3}, clearer.Cleared)
	require.Len(t, placement.LineItems, 3)
	require.Len(t, placement.Stock, 3)
	for _, r := range placement.Stock {
		assert.True(t, errors.Is(r.Err, context.DeadlineExceeded), r.Err)
	}
}
