package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/gateway"
	"github.com/fjod/go_cart/order-placement/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CartClearer empties a customer's cart once the order exists.
type CartClearer interface {
	ClearCart(ctx context.Context, customerID int64) error
}

// PlacementRecorder keeps a diagnostic record of every placement.
type PlacementRecorder interface {
	OrderCreated(ctx context.Context, p *domain.Placement) error
	OrderCompleted(ctx context.Context, p *domain.Placement) error
}

type Options struct {
	ShippingFee    decimal.Decimal
	RedirectTarget string
	RedirectDelay  time.Duration
	// ItemsBudget bounds the detail rows and stock updates that follow order creation.
	// Calls still pending when it runs out fail and are reported per item. Zero means no bound.
	ItemsBudget time.Duration
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{
		ShippingFee:    decimal.NewFromInt(10000),
		RedirectTarget: "/",
		RedirectDelay:  5 * time.Second,
		ItemsBudget:    20 * time.Second,
		Now:            time.Now,
	}
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, cart []domain.CartItem, shipping domain.ShippingInfo, customerID int64) (*domain.Placement, error)
	IsSubmitting(customerID int64) bool
}

type CheckoutServiceImpl struct {
	gateway  gateway.Gateway
	cart     CartClearer
	recorder PlacementRecorder
	opts     Options

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewCheckoutService wires the orchestrator. recorder may be nil.
func NewCheckoutService(gw gateway.Gateway, cart CartClearer, recorder PlacementRecorder, opts Options) *CheckoutServiceImpl {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CheckoutServiceImpl{
		gateway:  gw,
		cart:     cart,
		recorder: recorder,
		opts:     opts,
		inFlight: make(map[int64]struct{}),
	}
}

// PlaceOrder creates the order header, then one detail row and one stock update per cart item.
// Only a failure to create the header is returned as an error; per-item failures are reported in
// the returned placement. There is no idempotency key: every call creates a new order.
func (s *CheckoutServiceImpl) PlaceOrder(
	ctx context.Context,
	cart []domain.CartItem,
	shipping domain.ShippingInfo,
	customerID int64) (*domain.Placement, error) {

	if err := validatePlacement(cart, shipping, customerID); err != nil {
		return nil, err
	}
	if !s.acquire(customerID) {
		return nil, ErrSubmissionInFlight
	}
	defer s.release(customerID)

	total, totalWithShipping := s.Totals(cart)
	placement := &domain.Placement{
		AttemptID:         uuid.New(),
		CustomerID:        customerID,
		TotalPrice:        total,
		ShippingFee:       s.opts.ShippingFee,
		TotalWithShipping: totalWithShipping,
		Status:            domain.PlacementStatusInitiated,
		CreatedAt:         s.opts.Now(),
	}
	ctx, log := logger.With(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("attempt_id", placement.AttemptID.String()).Int64("customer_id", customerID)
	})

	orderID, err := s.createHeader(ctx, placement, shipping)
	if err != nil {
		log.Error().Err(err).Msg("order header submission failed")
		return nil, &HeaderCreationError{Err: err}
	}
	placement.OrderID = orderID
	placement.Status = domain.PlacementStatusOrderCreated
	log.Info().Int64("order_id", orderID).Str("total", totalWithShipping.String()).Msg("order created")

	// The order now exists upstream; finish the remaining steps even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	if errRecord := s.recorder.OrderCreated(ctx, placement); errRecord != nil {
		log.Error().Err(errRecord).Msg("failed to record created order")
	}

	itemsCtx, cancel := s.itemsContext(ctx)
	placement.LineItems = s.createLineItems(itemsCtx, orderID, cart)
	placement.Stock = s.reconcileStock(itemsCtx, cart)
	cancel()
	s.complete(ctx, placement)

	return placement, nil
}

func (s *CheckoutServiceImpl) itemsContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.ItemsBudget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.ItemsBudget)
}

// IsSubmitting reports whether a placement for customerID is in flight.
func (s *CheckoutServiceImpl) IsSubmitting(customerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[customerID]
	return ok
}

// Totals returns the exact items total and the total including the shipping fee.
func (s *CheckoutServiceImpl) Totals(cart []domain.CartItem) (decimal.Decimal, decimal.Decimal) {
	total := domain.SumItems(cart)
	return total, total.Add(s.opts.ShippingFee)
}

func (s *CheckoutServiceImpl) acquire(customerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[customerID]; busy {
		return false
	}
	s.inFlight[customerID] = struct{}{}
	return true
}

func (s *CheckoutServiceImpl) release(customerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, customerID)
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated(context.Context, *domain.Placement) error   { return nil }
func (nopRecorder) OrderCompleted(context.Context, *domain.Placement) error { return nil }
