package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/order-placement/domain"
)

type CartStore interface {
	Get(ctx context.Context, customerID int64) (*domain.Cart, error)
	Load(ctx context.Context, customerID int64) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	AddItem(ctx context.Context, customerID int64, item domain.CartItem) (*domain.Cart, error)
	Delete(ctx context.Context, customerID int64) error
	ClearCart(ctx context.Context, customerID int64) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrConflict  = errors.New("cart was modified concurrently")
)
