package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/logger"
)

// reconcileStock decrements the stock of every purchased product. The remote API only accepts full
// records, so each product is fetched and written back with a recomputed stok. Stock may go negative.
func (s *CheckoutServiceImpl) reconcileStock(ctx context.Context, cart []domain.CartItem) []domain.StockResult {
	log := logger.FromContext(ctx)
	results := make([]domain.StockResult, 0, len(cart))
	for _, item := range cart {
		result := s.updateStock(ctx, item)
		if result.Err != nil {
			log.Error().Err(result.Err).
				Int64("product_id", item.ProductID).
				Str("product_name", item.Name).
				Msg("failed to update stock")
		} else if result.Oversold() {
			log.Warn().
				Int64("product_id", item.ProductID).
				Int64("stock", result.NewStock).
				Msg("stock went negative, continuing")
		}
		results = append(results, result)
	}
	return results
}

func (s *CheckoutServiceImpl) updateStock(ctx context.Context, item domain.CartItem) domain.StockResult {
	result := domain.StockResult{ProductID: item.ProductID, Quantity: item.Quantity}

	record, err := s.gateway.GetProductByID(ctx, item.ProductID)
	if err != nil {
		result.Err = fmt.Errorf("fetch product: %w", err)
		return result
	}
	current, err := record.Stock()
	if err != nil {
		result.Err = fmt.Errorf("read stock: %w", err)
		return result
	}
	result.PreviousStock = current
	result.NewStock = current - int64(item.Quantity)

	if _, err := s.gateway.UpdateProduct(ctx, item.ProductID, record.WithStock(result.NewStock)); err != nil {
		result.Err = fmt.Errorf("write product: %w", err)
	}
	return result
}
