package checkout

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kartverse/shopfront/internal/domain/cart"
	"github.com/kartverse/shopfront/internal/domain/order"
)

// ErrEmptyCart is returned when checkout is attempted with nothing to order.
// It is distinct from form validation failures: the order form is not even
// evaluated for an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// defaultNotifyTimeout bounds the post-commit notification so a slow broker
// can never block returning the checkout result.
const defaultNotifyTimeout = 3 * time.Second

// Notifier delivers a best-effort message after an order commits.
type Notifier interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// Result is the outcome of a successful checkout.
type Result struct {
	OrderID string
	// Dropped lists cart slugs that no longer resolved against the catalog
	// and were excluded from the order.
	Dropped []string
	// Notified is false when the post-commit notification failed. The
	// order itself is committed either way.
	Notified bool
}

// Coordinator drives a single checkout attempt: precondition check, form
// validation, cart resolution, atomic persistence, cart clearing, and a
// best-effort notification. Failures before the commit leave the cart
// intact so the buyer can retry.
type Coordinator struct {
	carts         *cart.Manager
	orders        order.Repository
	notifier      Notifier
	recipients    []string
	notifyTimeout time.Duration
	lg            *zap.Logger
}

// NewCoordinator creates a Coordinator. Recipients receive the new-order
// notification after every successful checkout.
func NewCoordinator(
	carts *cart.Manager,
	orders order.Repository,
	notifier Notifier,
	recipients []string,
	lg *zap.Logger,
) *Coordinator {
	return &Coordinator{
		carts:         carts,
		orders:        orders,
		notifier:      notifier,
		recipients:    recipients,
		notifyTimeout: defaultNotifyTimeout,
		lg:            lg,
	}
}

// Checkout converts the session's cart into a persisted order.
//
// Entries that fail to resolve are dropped silently and reported in
// Result.Dropped: a cart item may have become unavailable between cart-add
// and checkout, and the order is placed for whatever still resolves. A cart
// in which nothing resolves counts as empty: an order is never committed
// without at least one line item.
func (c *Coordinator) Checkout(ctx context.Context, sessionID string, form order.Form) (*Result, error) {
	entries, err := c.carts.Items(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCart
	}

	if ferrs := form.Validate(); ferrs != nil {
		return nil, ferrs
	}

	lines, total, err := c.carts.ResolveAndPrice(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve cart")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]order.LineItem, len(lines))
	resolved := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		items[i] = order.LineItem{
			ProductSlug: l.Product.Slug,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price.Decimal,
		}
		resolved[l.Product.Slug] = struct{}{}
	}

	var dropped []string
	for slug := range entries {
		if _, ok := resolved[slug]; !ok {
			dropped = append(dropped, slug)
		}
	}
	sort.Strings(dropped)

	o := &order.Order{
		ID:        uuid.New().String(),
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Comment:   form.Comment,
		Status:    order.StatusWaiting,
		Price:     total,
		Items:     items,
	}
	if err := c.orders.Create(ctx, o); err != nil {
		// Nothing was committed; the cart stays as it was for a retry.
		return nil, errors.Wrap(err, "create order")
	}

	// The cart is cleared only after the order committed. A clear failure
	// cannot be rolled back at this point, so it is reported as a warning
	// and the checkout still succeeds.
	if err := c.carts.Clear(ctx, sessionID); err != nil {
		c.lg.Warn("clearing cart after checkout",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	res := &Result{OrderID: o.ID, Dropped: dropped, Notified: true}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
	defer cancel()

	body := fmt.Sprintf("There is a new order, order_id: %s", o.ID)
	if err := c.notifier.Send(nctx, "New order", body, c.recipients); err != nil {
		c.lg.Warn("order notification failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		res.Notified = false
	}

	return res, nil
}
