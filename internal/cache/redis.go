package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/redis/go-redis/v9"
)

const maxAddRetries = 3

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
		now:     time.Now,
	}
}

// RedisCache keeps one JSON cart per customer. Carts expire after the base TTL plus a random
// jitter of up to four minutes so abandoned carts do not expire in bulk.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	now     func() time.Time
}

func (r *RedisCache) Get(ctx context.Context, customerID int64) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeCart(data)
}

// Load is Get that treats a missing cart as an empty one.
func (r *RedisCache) Load(ctx context.Context, customerID int64) (*domain.Cart, error) {
	cart, err := r.Get(ctx, customerID)
	if errors.Is(err, ErrCacheMiss) {
		return &domain.Cart{CustomerID: customerID, UpdatedAt: r.now()}, nil
	}
	return cart, err
}

func (r *RedisCache) Set(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cacheKey(cart.CustomerID), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// AddItem merges item into the stored cart under WATCH, retrying when another writer got there first.
func (r *RedisCache) AddItem(ctx context.Context, customerID int64, item domain.CartItem) (*domain.Cart, error) {
	key := cacheKey(customerID)
	var result *domain.Cart

	txf := func(tx *redis.Tx) error {
		cart := &domain.Cart{CustomerID: customerID}
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get failed: %w", err)
		default:
			if cart, err = decodeCart(data); err != nil {
				return err
			}
		}

		cart.Upsert(item)
		cart.UpdatedAt = r.now()
		encoded, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart failed: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl())
			return nil
		})
		if err == nil {
			result = cart
		}
		return err
	}

	for range maxAddRetries {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, ErrConflict
}

func (r *RedisCache) Delete(ctx context.Context, customerID int64) error {
	if err := r.client.Del(ctx, cacheKey(customerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ClearCart empties the customer's cart after a successful checkout.
func (r *RedisCache) ClearCart(ctx context.Context, customerID int64) error {
	return r.Delete(ctx, customerID)
}

func (r *RedisCache) ttl() time.Duration {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.baseTTL + jitter
}

func decodeCart(data []byte) (*domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func cacheKey(customerID int64) string {
	return fmt.Sprintf("cart:%d", customerID)
}
