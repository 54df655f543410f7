package domain

import "github.com/shopspring/decimal"

type OrderStatus string

// OrderStatusProcessing is the remote API's literal for a freshly placed order.
const OrderStatusProcessing OrderStatus = "diproses"

// OrderDateLayout is the format of OrderHeader.OrderDate.
const OrderDateLayout = "2006-01-02"

// OrderHeader is the aggregate order sent to the order-creation endpoint.
type OrderHeader struct {
	CustomerID      int64
	OrderDate       string
	TotalPrice      decimal.Decimal
	Status          OrderStatus
	PaymentMethod   PaymentMethod
	ShippingAddress string
}

// OrderLineItem links one cart entry to a created order.
type OrderLineItem struct {
	OrderID   int64 `json:"pesanan_id"`
	ProductID int64 `json:"obat_id"`
	Quantity  int   `json:"jumlah"`
}
