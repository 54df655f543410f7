package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/gateway"
)

// MockGateway implements gateway.Gateway against an in-memory product table and records every call.
type MockGateway struct {
	mu sync.Mutex

	NextOrderID   int64
	CreateOrderFn func(domain.OrderHeader) (*gateway.CreatedOrder, error)
	DetailErrs    map[int64]error
	GetErrs       map[int64]error
	UpdateErrs    map[int64]error
	Products      map[int64]domain.ProductStockRecord

	Calls   []string
	Headers []domain.OrderHeader
	Details []domain.OrderLineItem
	Updates map[int64]domain.ProductStockRecord

	// block, when set, makes CreateOrder wait until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		NextOrderID: 100,
		DetailErrs:  map[int64]error{},
		GetErrs:     map[int64]error{},
		UpdateErrs:  map[int64]error{},
		Products:    map[int64]domain.ProductStockRecord{},
		Updates:     map[int64]domain.ProductStockRecord{},
	}
}

func (m *MockGateway) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockGateway) CreateOrder(_ context.Context, header domain.OrderHeader) (*gateway.CreatedOrder, error) {
	m.record("POST /pesanan/")
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Headers = append(m.Headers, header)
	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(header)
	}
	id := m.NextOrderID
	m.NextOrderID++
	return &gateway.CreatedOrder{ID: id}, nil
}

func (m *MockGateway) CreateOrderDetail(_ context.Context, item domain.OrderLineItem) (*gateway.CreatedDetail, error) {
	m.record("POST /detail-pesanan/")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Details = append(m.Details, item)
	if err := m.DetailErrs[item.ProductID]; err != nil {
		return nil, err
	}
	return &gateway.CreatedDetail{ID: int64(len(m.Details))}, nil
}

func (m *MockGateway) GetProductByID(_ context.Context, id int64) (domain.ProductStockRecord, error) {
	m.record(fmt.Sprintf("GET /obat/%d", id))
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.GetErrs[id]; err != nil {
		return domain.ProductStockRecord{}, err
	}
	record, ok := m.Products[id]
	if !ok {
		return domain.ProductStockRecord{}, &gateway.RemoteError{Op: "get product", Status: 404}
	}
	return record, nil
}

func (m *MockGateway) UpdateProduct(_ context.Context, id int64, record domain.ProductStockRecord) (domain.ProductStockRecord, error) {
	m.record(fmt.Sprintf("PUT /obat/%d", id))
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpdateErrs[id]; err != nil {
		return domain.ProductStockRecord{}, err
	}
	m.Updates[id] = record
	m.Products[id] = record
	return record, nil
}

func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockCartClearer implements CartClearer for testing
type MockCartClearer struct {
	mu      sync.Mutex
	Cleared []int64
	Err     error
}

func (m *MockCartClearer) ClearCart(_ context.Context, customerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, customerID)
	return m.Err
}

// MockRecorder implements PlacementRecorder for testing
type MockRecorder struct {
	Created      []domain.Placement
	Completed    []domain.Placement
	CreatedErr   error
	CompletedErr error
}

func (m *MockRecorder) OrderCreated(_ context.Context, p *domain.Placement) error {
	m.Created = append(m.Created, *p)
	return m.CreatedErr
}

func (m *MockRecorder) OrderCompleted(_ context.Context, p *domain.Placement) error {
	m.Completed = append(m.Completed, *p)
	return m.CompletedErr
}

var errUpstream = errors.New("upstream exploded")

func productRecord(id, stock int64, name string) domain.ProductStockRecord {
	var record domain.ProductStockRecord
	body := fmt.Sprintf(`{"obat_id":%d,"nama_obat":%q,"stok":%d,"satuan":"strip","kategori":"analgesic"}`, id, name, stock)
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		panic(err)
	}
	return record
}
