package session

import (
	"context"
	"maps"
	"sync"

	"github.com/kartverse/shopfront/internal/domain/cart"
)

var _ cart.Store = (*MemoryStore)(nil)

// MemoryStore is an in-process cart.Store for tests and local development.
// It copies carts on every read and write so callers never share the stored
// map.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]cart.Cart
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]cart.Cart)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return cart.Cart{}, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return maps.Clone(c), nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID string, c cart.Cart) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = maps.Clone(c)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

// Corrupt overwrites the stored cart without validation. Test helper for
// exercising malformed-payload handling.
func (s *MemoryStore) Corrupt(sessionID string, c cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = c
}
