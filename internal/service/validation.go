package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fjod/go_cart/order-placement/domain"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ItemIssue describes an invalid cart line.
type ItemIssue struct {
	Index     int    `json:"index"`
	ProductID int64  `json:"product_id"`
	Reason    string `json:"reason"`
}

// ValidationError is returned before any remote call when the input is incomplete or malformed.
type ValidationError struct {
	Fields map[string]string `json:"fields,omitempty"`
	Items  []ItemIssue       `json:"items,omitempty"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields)+len(e.Items))
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("item %d (product %d): %s", it.Index, it.ProductID, it.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0 && len(e.Items) == 0
}

func (e *ValidationError) field(name, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[name]; !exists {
		e.Fields[name] = msg
	}
}

// ValidateShipping checks the checkout form fields.
func ValidateShipping(s domain.ShippingInfo) *ValidationError {
	v := &ValidationError{}
	required := []struct{ name, value string }{
		{"name", s.Name},
		{"email", s.Email},
		{"phone", s.Phone},
		{"address", s.Address},
		{"city", s.City},
		{"postal_code", s.PostalCode},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			v.field(f.name, "is required")
		}
	}
	if email := strings.TrimSpace(s.Email); email != "" && !emailPattern.MatchString(email) {
		v.field("email", "must look like name@domain.tld")
	}
	if !s.PaymentMethod.IsValid() {
		v.field("payment_method", fmt.Sprintf("must be one of %s, %s, %s",
			domain.PaymentBankTransfer, domain.PaymentCashOnDelivery, domain.PaymentEWallet))
	}
	if v.empty() {
		return nil
	}
	return v
}

// ValidateCart checks every cart line.
func ValidateCart(items []domain.CartItem) *ValidationError {
	v := &ValidationError{}
	seen := make(map[int64]bool, len(items))
	for i, item := range items {
		switch {
		case item.ProductID <= 0:
			v.Items = append(v.Items, ItemIssue{i, item.ProductID, "product id must be positive"})
		case seen[item.ProductID]:
			v.Items = append(v.Items, ItemIssue{i, item.ProductID, "duplicate product in cart"})
		}
		seen[item.ProductID] = true
		if item.Quantity < 1 {
			v.Items = append(v.Items, ItemIssue{i, item.ProductID, fmt.Sprintf("quantity must be at least 1, got %d", item.Quantity)})
		}
		if item.Price.IsNegative() {
			v.Items = append(v.Items, ItemIssue{i, item.ProductID, fmt.Sprintf("price must not be negative, got %s", item.Price)})
		}
	}
	if v.empty() {
		return nil
	}
	return v
}

func validatePlacement(cart []domain.CartItem, shipping domain.ShippingInfo, customerID int64) error {
	if len(cart) == 0 {
		return ErrEmptyCart
	}
	v := &ValidationError{}
	if customerID <= 0 {
		v.field("customer_id", "must be positive")
	}
	if sv := ValidateShipping(shipping); sv != nil {
		for k, msg := range sv.Fields {
			v.field(k, msg)
		}
	}
	if cv := ValidateCart(cart); cv != nil {
		v.Items = cv.Items
	}
	if v.empty() {
		return nil
	}
	return v
}
