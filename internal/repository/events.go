package repository

import (
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/shopspring/decimal"
)

// placedEvent is the order.placed payload.
type placedEvent struct {
	AttemptID         string               `json:"attempt_id"`
	OrderID           int64                `json:"order_id"`
	CustomerID        int64                `json:"customer_id"`
	TotalPrice        decimal.Decimal      `json:"total_price"`
	TotalWithShipping decimal.Decimal      `json:"total_with_shipping"`
	Status            string               `json:"status"`
	Items             []placedEventItem    `json:"items"`
	Failures          []domain.ItemFailure `json:"failures"`
	CompletedAt       time.Time            `json:"completed_at"`
}

type placedEventItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	NewStock  *int64 `json:"new_stock,omitempty"`
}

func newPlacedEvent(p *domain.Placement, failures []domain.ItemFailure) placedEvent {
	items := make([]placedEventItem, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		items = append(items, placedEventItem{ProductID: li.ProductID, Quantity: li.Quantity})
	}
	for _, st := range p.Stock {
		if !st.OK() {
			continue
		}
		for i := range items {
			if items[i].ProductID == st.ProductID {
				items[i].NewStock = &st.NewStock
			}
		}
	}
	return placedEvent{
		AttemptID:         p.AttemptID.String(),
		OrderID:           p.OrderID,
		CustomerID:        p.CustomerID,
		TotalPrice:        p.TotalPrice,
		TotalWithShipping: p.TotalWithShipping,
		Status:            p.Status.String(),
		Items:             items,
		Failures:          failures,
		CompletedAt:       time.Now().UTC(),
	}
}
