package domain

import "fmt"

type PaymentMethod string

const (
	PaymentBankTransfer   PaymentMethod = "transfer"
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentEWallet        PaymentMethod = "ewallet"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentBankTransfer, PaymentCashOnDelivery, PaymentEWallet:
		return true
	}
	return false
}

func (m PaymentMethod) String() string {
	return string(m)
}

// ShippingInfo is the checkout form input.
type ShippingInfo struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	PostalCode    string        `json:"postal_code"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// ShippingAddress composes the address string sent with the order header.
func (s ShippingInfo) ShippingAddress() string {
	return fmt.Sprintf("%s, %s, %s", s.Address, s.City, s.PostalCode)
}
