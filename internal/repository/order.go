package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartverse/shopfront/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, first_name, last_name, email, phone, comment, status, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_slug, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`

	getOrderSQL = `SELECT id, first_name, last_name, email, phone, comment, status, price, created_at
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT product_slug, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	updateOrderStatusSQL = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`

	orderExistsSQL = `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and all of its line items in one transaction.
// A failure at any point rolls the whole aggregate back: there is never a
// committed order row without its items.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.FirstName, o.LastName, o.Email, o.Phone, o.Comment,
		string(o.Status), o.Price,
	)
	if err != nil {
		return errors.Wrapf(err, "inserting order %q", o.ID)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			o.ID, item.ProductSlug, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return errors.Wrapf(err, "inserting line item %q for order %q", item.ProductSlug, o.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrapf(err, "committing order %q", o.ID)
	}
	return nil
}

// GetByID returns the order aggregate: the order row plus its line items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.Phone, &o.Comment,
		&status, &o.Price, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %q", id)
	}
	o.Status = order.Status(status)

	rows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting items for order %q", id)
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineItem, error) {
		var item order.LineItem
		err := row.Scan(&item.ProductSlug, &item.Quantity, &item.UnitPrice)
		return item, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "collecting items for order %q", id)
	}

	return &o, nil
}

// UpdateStatus performs a compare-and-set status transition. The WHERE
// clause on the current status guards against concurrent operator actions.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status) error {
	if !from.CanTransition(to) {
		return order.ErrInvalidTransition
	}

	ct, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(from), string(to))
	if err != nil {
		return errors.Wrapf(err, "updating status of order %q", id)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
			return errors.Wrapf(err, "checking order %q", id)
		}
		if !exists {
			return order.ErrNotFound
		}
		// The stored status moved underneath us.
		return order.ErrInvalidTransition
	}
	return nil
}
