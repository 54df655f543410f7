package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a product line held in the customer's cart.
type CartItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
	Image     string          `json:"image,omitempty"`
}

// Subtotal returns price x quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart represents the full cart state of one customer
type Cart struct {
	CustomerID int64      `json:"customer_id"`
	Items      []CartItem `json:"items"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Upsert adds item to the cart, merging quantities when the product is already present.
func (c *Cart) Upsert(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

func (c *Cart) Subtotal() decimal.Decimal {
	return SumItems(c.Items)
}

// SumItems is the exact sum of price x quantity over items.
func SumItems(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
