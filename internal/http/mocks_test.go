package http

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/catalog"
	"github.com/fjod/go_cart/order-placement/internal/repository"
	"github.com/google/uuid"
)

type CheckoutMock struct {
	placement *domain.Placement
	err       error
	delay     time.Duration

	gotCart     []domain.CartItem
	gotShipping domain.ShippingInfo
	gotCustomer int64
}

func (c *CheckoutMock) PlaceOrder(_ context.Context, cart []domain.CartItem, shipping domain.ShippingInfo, customerID int64) (*domain.Placement, error) {
	c.gotCart = cart
	c.gotShipping = shipping
	c.gotCustomer = customerID
	time.Sleep(c.delay)
	return c.placement, c.err
}

func (c *CheckoutMock) IsSubmitting(int64) bool { return false }

type CartStoreMock struct {
	mu      sync.Mutex
	carts   map[int64]*domain.Cart
	err     error
	cleared []int64
}

func newCartStoreMock() *CartStoreMock {
	return &CartStoreMock{carts: map[int64]*domain.Cart{}}
}

func (m *CartStoreMock) Load(_ context.Context, customerID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if cart, ok := m.carts[customerID]; ok {
		return cart, nil
	}
	return &domain.Cart{CustomerID: customerID}, nil
}

func (m *CartStoreMock) AddItem(_ context.Context, customerID int64, item domain.CartItem) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[customerID]
	if !ok {
		cart = &domain.Cart{CustomerID: customerID}
		m.carts[customerID] = cart
	}
	cart.Upsert(item)
	return cart, nil
}

func (m *CartStoreMock) ClearCart(_ context.Context, customerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.carts, customerID)
	m.cleared = append(m.cleared, customerID)
	return nil
}

type CatalogMock struct {
	detail *catalog.ProductDetail
	item   domain.CartItem
	err    error
}

func (c CatalogMock) GetProductDetail(context.Context, int64) (*catalog.ProductDetail, error) {
	return c.detail, c.err
}

func (c CatalogMock) CartItemFor(_ context.Context, _ int64, quantity int) (domain.CartItem, error) {
	if c.err != nil {
		return domain.CartItem{}, c.err
	}
	item := c.item
	item.Quantity = quantity
	return item, nil
}

type HistoryMock struct {
	records []*repository.PlacementRecord
	err     error
}

func (h HistoryMock) GetPlacement(_ context.Context, attemptID uuid.UUID) (*repository.PlacementRecord, error) {
	if h.err != nil {
		return nil, h.err
	}
	for _, r := range h.records {
		if r.AttemptID == attemptID {
			return r, nil
		}
	}
	return nil, repository.ErrPlacementNotFound
}

func (h HistoryMock) ListPlacementsByCustomer(_ context.Context, customerID int64, limit int) ([]*repository.PlacementRecord, error) {
	if h.err != nil {
		return nil, h.err
	}
	var out []*repository.PlacementRecord
	for _, r := range h.records {
		if r.CustomerID == customerID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}
