package service

import (
	"context"

	"github.com/fjod/go_cart/order-placement/domain"
)

func (s *CheckoutServiceImpl) createHeader(ctx context.Context, placement *domain.Placement, shipping domain.ShippingInfo) (int64, error) {
	header := domain.OrderHeader{
		CustomerID:      placement.CustomerID,
		OrderDate:       s.opts.Now().UTC().Format(domain.OrderDateLayout),
		TotalPrice:      placement.TotalWithShipping,
		Status:          domain.OrderStatusProcessing,
		PaymentMethod:   shipping.PaymentMethod,
		ShippingAddress: shipping.ShippingAddress(),
	}

	created, err := s.gateway.CreateOrder(ctx, header)
	if err != nil {
		return 0, err
	}
	if created == nil || created.ID <= 0 {
		return 0, ErrMissingOrderID
	}
	return created.ID, nil
}
