package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartverse/shopfront/internal/domain/product"
)

const (
	listProductsSQL = `SELECT slug, name, price, description, image, COALESCE(category_slug, ''), available
		FROM products
		WHERE ($1 = '' OR category_slug = $1) AND (available OR NOT $2)
		ORDER BY name`

	getProductBySlugSQL = `SELECT slug, name, price, description, image, COALESCE(category_slug, ''), available
		FROM products WHERE slug = $1`

	getProductsBySlugsSQL = `SELECT slug, name, price, description, image, COALESCE(category_slug, ''), available
		FROM products WHERE slug = ANY($1)`

	listCategoriesSQL = `SELECT slug, name FROM categories ORDER BY name`
)

var _ product.Store = (*ProductRepository)(nil)

// ProductRepository implements product.Store backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog products matching the filter, ordered by name.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, f.Category, f.OnlyAvailable)
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetBySlug returns a single product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductBySlugSQL, slug)
	if err != nil {
		return nil, errors.Wrapf(err, "getting product %q", slug)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %q", slug)
	}
	return &p, nil
}

// GetBySlugs returns products matching any of the given slugs. Slugs with no
// matching product are simply absent from the result.
func (r *ProductRepository) GetBySlugs(ctx context.Context, slugs []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsBySlugsSQL, slugs)
	if err != nil {
		return nil, errors.Wrap(err, "getting products by slugs")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListCategories returns all categories ordered by name.
func (r *ProductRepository) ListCategories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing categories")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.Slug, &c.Name)
		return c, err
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.Slug, &p.Name, &p.Price, &p.Description,
		&p.Image, &p.Category, &p.Available,
	)
	return p, err
}
