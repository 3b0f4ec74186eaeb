package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when a status change is not one of
	// the defined forward transitions.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status is the processing state of an order. Statuses only move forward:
// waiting → processing|canceled, processing → done|canceled. Done and
// canceled are terminal.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusCanceled   Status = "canceled"
)

var transitions = map[Status][]Status{
	StatusWaiting:    {StatusProcessing, StatusCanceled},
	StatusProcessing: {StatusDone, StatusCanceled},
	StatusDone:       nil,
	StatusCanceled:   nil,
}

// ParseStatus converts a string into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", errors.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// CanTransition reports whether the status may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Order is the durable record produced from a cart at checkout. Price is a
// snapshot computed from the line items at creation time and is immune to
// later catalog price changes.
type Order struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Comment   string
	Status    Status
	Price     decimal.Decimal
	Items     []LineItem
	CreatedAt time.Time
}

// LineItem is one product position of an order. It is created alongside the
// order and never mutated independently. UnitPrice is captured once, at
// order creation.
type LineItem struct {
	ProductSlug string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Total returns quantity × captured unit price for this line.
func (i LineItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Repository defines persistence operations for orders. Create must commit
// the order row and all of its line items as one atomic unit.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus moves an order from one status to another using a
	// compare-and-set on the current status. It fails with
	// ErrInvalidTransition when the move is not a defined transition or
	// the stored status no longer matches from.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
}
