package service

import (
	"context"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/logger"
)

func (s *CheckoutServiceImpl) complete(ctx context.Context, placement *domain.Placement) {
	log := logger.FromContext(ctx)

	placement.Status = domain.PlacementStatusCompleted
	placement.Redirect = domain.Redirect{Target: s.opts.RedirectTarget, After: s.opts.RedirectDelay}

	if err := s.cart.ClearCart(ctx, placement.CustomerID); err != nil {
		log.Error().Err(err).Msg("failed to clear cart")
	}
	if err := s.recorder.OrderCompleted(ctx, placement); err != nil {
		log.Error().Err(err).Msg("failed to record completed order")
	}

	failures := placement.Failures()
	event := log.Info()
	if len(failures) > 0 {
		event = log.Warn()
	}
	event.Int64("order_id", placement.OrderID).
		Int("items", len(placement.LineItems)).
		Int("failures", len(failures)).
		Msg("order placement complete")
}
