package gateway

import (
	"context"
	"encoding/json"

	"github.com/fjod/go_cart/order-placement/domain"
)

// Gateway is the remote order/product API consumed by the checkout.
type Gateway interface {
	CreateOrder(ctx context.Context, header domain.OrderHeader) (*CreatedOrder, error)
	CreateOrderDetail(ctx context.Context, item domain.OrderLineItem) (*CreatedDetail, error)
	GetProductByID(ctx context.Context, id int64) (domain.ProductStockRecord, error)
	UpdateProduct(ctx context.Context, id int64, record domain.ProductStockRecord) (domain.ProductStockRecord, error)
}

// CreatedOrder is the order-creation response. ID is zero when the response carried no usable id.
type CreatedOrder struct {
	ID  int64
	Raw json.RawMessage
}

type CreatedDetail struct {
	ID  int64
	Raw json.RawMessage
}

type orderHeaderRequest struct {
	CustomerID      int64       `json:"pelanggan_id"`
	OrderDate       string      `json:"tanggal_pesan"`
	TotalPrice      json.Number `json:"total_harga"`
	Status          string      `json:"status_pesanan"`
	PaymentMethod   string      `json:"metode_pembayaran"`
	ShippingAddress string      `json:"alamat_pengiriman"`
}

func newOrderHeaderRequest(h domain.OrderHeader) orderHeaderRequest {
	return orderHeaderRequest{
		CustomerID:      h.CustomerID,
		OrderDate:       h.OrderDate,
		TotalPrice:      json.Number(h.TotalPrice.String()),
		Status:          string(h.Status),
		PaymentMethod:   h.PaymentMethod.String(),
		ShippingAddress: h.ShippingAddress,
	}
}

// idFrom returns the first integral id found under keys, or zero.
func idFrom(body []byte, keys ...string) int64 {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return 0
	}
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		if id, err := domain.ParseInteger(raw); err == nil && id > 0 {
			return id
		}
	}
	return 0
}
