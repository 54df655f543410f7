package service

import (
	"context"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/logger"
)

// createLineItems sends one detail row per cart item, in cart order. A failed item does not stop the rest.
func (s *CheckoutServiceImpl) createLineItems(ctx context.Context, orderID int64, cart []domain.CartItem) []domain.LineItemResult {
	log := logger.FromContext(ctx)
	results := make([]domain.LineItemResult, 0, len(cart))
	for _, item := range cart {
		result := domain.LineItemResult{ProductID: item.ProductID, Quantity: item.Quantity}
		_, err := s.gateway.CreateOrderDetail(ctx, domain.OrderLineItem{
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
		if err != nil {
			result.Err = err
			log.Error().Err(err).
				Int64("order_id", orderID).
				Int64("product_id", item.ProductID).
				Str("product_name", item.Name).
				Msg("failed to create order detail")
		}
		results = append(results, result)
	}
	return results
}
