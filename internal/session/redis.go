package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/kartverse/shopfront/internal/domain/cart"
)

// DefaultTTL is the cart session lifetime when none is configured.
const DefaultTTL = 14 * 24 * time.Hour

var _ cart.Store = (*RedisStore)(nil)

// RedisStore persists session carts in redis as JSON values. Every mutation
// is written straight through, so a saved cart survives for the remainder of
// the session TTL regardless of process restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore with the given session lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

// Get loads the session's cart. A missing key reads as an empty cart.
// Payloads that fail to decode or violate the cart schema are rejected with
// cart.ErrMalformedCart instead of being passed along.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.Cart{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, cart.ErrMalformedCart
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = cart.Cart{}
	}
	return c, nil
}

// Set stores the cart and refreshes the session TTL.
func (s *RedisStore) Set(ctx context.Context, sessionID string, c cart.Cart) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	if err := s.client.Set(ctx, cartKey(sessionID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete removes the session's cart entirely.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
