package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartverse/shopfront/internal/domain/cart"
)

func TestMemoryStore_GetAbsent(t *testing.T) {
	s := NewMemoryStore()

	c, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Empty(t, c)
}

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "s1", cart.Cart{"gopher-mug": 3}))

	c, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, cart.Cart{"gopher-mug": 3}, c)
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	original := cart.Cart{"gopher-mug": 3}
	require.NoError(t, s.Set(ctx, "s1", original))

	// Mutating either the input or a read result must not leak into the store.
	original["gopher-mug"] = 999

	c, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, c["gopher-mug"])

	c["nebula-poster"] = 1
	c2, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, c2, "nebula-poster")
}

func TestMemoryStore_RejectsMalformedOnWrite(t *testing.T) {
	s := NewMemoryStore()

	err := s.Set(context.Background(), "s1", cart.Cart{"gopher-mug": 0})
	require.ErrorIs(t, err, cart.ErrMalformedCart)

	err = s.Set(context.Background(), "s1", cart.Cart{"": 5})
	require.ErrorIs(t, err, cart.ErrMalformedCart)
}

func TestMemoryStore_RejectsMalformedOnRead(t *testing.T) {
	s := NewMemoryStore()
	s.Corrupt("s1", cart.Cart{"gopher-mug": -2})

	_, err := s.Get(context.Background(), "s1")
	require.ErrorIs(t, err, cart.ErrMalformedCart)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "s1", cart.Cart{"gopher-mug": 3}))
	require.NoError(t, s.Delete(ctx, "s1"))

	c, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, c)

	// Deleting an absent cart is a no-op.
	require.NoError(t, s.Delete(ctx, "s2"))
}
