package cart

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kartverse/shopfront/internal/domain/product"
)

// Line is one resolved cart entry with its price captured at resolution time.
type Line struct {
	Product  product.Product
	Quantity int
	Total    decimal.Decimal
}

// Manager owns all cart mutations and the single pre-checkout pricing path.
// Every surface that displays a cart total goes through ResolveAndPrice.
type Manager struct {
	store   Store
	catalog product.Store
}

// NewManager creates a Manager over the given session store and catalog.
func NewManager(store Store, catalog product.Store) *Manager {
	return &Manager{store: store, catalog: catalog}
}

// SetQuantity sets the desired quantity for slug, overwriting any existing
// entry rather than adding to it. It returns the distinct item count after
// the write. Quantities outside [1, 999] fail with ErrInvalidQuantity and
// leave the cart unchanged.
func (m *Manager) SetQuantity(ctx context.Context, sessionID, slug string, quantity int) (int, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return 0, ErrInvalidQuantity
	}
	if slug == "" {
		return 0, errors.Wrap(ErrInvalidQuantity, "empty slug")
	}

	c, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "load cart")
	}

	c[slug] = quantity
	if err := m.store.Set(ctx, sessionID, c); err != nil {
		return 0, errors.Wrap(err, "persist cart")
	}
	return len(c), nil
}

// Remove deletes the entry for slug. A missing slug fails with
// ErrItemNotFound; the rest of the cart is untouched either way.
func (m *Manager) Remove(ctx context.Context, sessionID, slug string) error {
	c, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}

	if _, ok := c[slug]; !ok {
		return ErrItemNotFound
	}

	delete(c, slug)
	if err := m.store.Set(ctx, sessionID, c); err != nil {
		return errors.Wrap(err, "persist cart")
	}
	return nil
}

// Items returns the current cart contents. The result is never nil: a
// session without a cart reads as an empty mapping.
func (m *Manager) Items(ctx context.Context, sessionID string) (Cart, error) {
	c, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return c, nil
}

// CountDistinct returns the number of distinct product slugs in the cart.
func (m *Manager) CountDistinct(ctx context.Context, sessionID string) (int, error) {
	c, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "load cart")
	}
	return len(c), nil
}

// ResolveAndPrice looks every cart entry up in the catalog and prices it.
// Entries whose slug no longer resolves, and products whose price is absent,
// are excluded from the result rather than reported as errors: an order may
// legitimately be placed for fewer items than the cart held. Lines are
// ordered by slug and the returned total is the sum of all line totals.
func (m *Manager) ResolveAndPrice(ctx context.Context, sessionID string) ([]Line, decimal.Decimal, error) {
	c, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "load cart")
	}
	if len(c) == 0 {
		return nil, decimal.Zero, nil
	}

	slugs := make([]string, 0, len(c))
	for slug := range c {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	found, err := m.catalog.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "resolve products")
	}

	bySlug := make(map[string]product.Product, len(found))
	for _, p := range found {
		bySlug[p.Slug] = p
	}

	lines := make([]Line, 0, len(slugs))
	total := decimal.Zero
	for _, slug := range slugs {
		p, ok := bySlug[slug]
		if !ok || !p.Price.Valid {
			continue
		}

		qty := c[slug]
		lineTotal := p.Price.Decimal.Mul(decimal.NewFromInt(int64(qty)))
		lines = append(lines, Line{
			Product:  p,
			Quantity: qty,
			Total:    lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return lines, total, nil
}

// Clear removes the whole cart for the session.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}
