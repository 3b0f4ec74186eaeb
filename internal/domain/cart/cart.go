package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Quantity bounds for a single cart entry.
const (
	MinQuantity = 1
	MaxQuantity = 999
)

var (
	// ErrInvalidQuantity is returned when a quantity falls outside [1, 999].
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")
	// ErrItemNotFound is returned when removing a slug that is not in the
	// cart. It is recoverable: callers surface it as a warning.
	ErrItemNotFound = errors.New("item not in cart")
	// ErrMalformedCart is returned when a session payload does not match
	// the cart schema. Malformed payloads are rejected, never trusted.
	ErrMalformedCart = errors.New("malformed cart payload")
)

// Cart maps product slugs to desired quantities. It is owned by exactly one
// session and lives until checkout succeeds or the session expires. An entry
// with quantity zero never exists: removal is the only way to clear an item.
type Cart map[string]int

// Validate checks the cart against its schema. Session storage is a boundary
// like any other, so carts are validated both on load and before save.
func (c Cart) Validate() error {
	for slug, qty := range c {
		if slug == "" || qty < MinQuantity || qty > MaxQuantity {
			return ErrMalformedCart
		}
	}
	return nil
}

// Store persists carts keyed by session identity. Set must be write-through:
// a mutation is durable for the session's remaining lifetime once Set
// returns. Get returns an empty cart, never nil, when the session has none.
type Store interface {
	Get(ctx context.Context, sessionID string) (Cart, error)
	Set(ctx context.Context, sessionID string, c Cart) error
	Delete(ctx context.Context, sessionID string) error
}
