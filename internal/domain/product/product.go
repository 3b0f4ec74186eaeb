package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is the
// current catalog price; a product without a valid price cannot be sold and
// is skipped during cart resolution.
type Product struct {
	Slug        string
	Name        string
	Price       decimal.NullDecimal
	Description string
	Image       string
	Category    string
	Available   bool
}

// Category groups catalog products for listing filters.
type Category struct {
	Slug string
	Name string
}

// Filter narrows product listings.
type Filter struct {
	// Category restricts results to a single category slug when non-empty.
	Category string
	// OnlyAvailable excludes products flagged as unavailable.
	OnlyAvailable bool
}

// Store defines read operations for the product catalog.
type Store interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetBySlugs(ctx context.Context, slugs []string) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
}
