package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the durable, row-oriented order table: a primary key on
// order_id and a unique index on payment_intent_id.
type Store interface {
	Insert(ctx context.Context, o Order) error
	Get(ctx context.Context, orderID uuid.UUID) (Order, bool, error)
	GetByIntent(ctx context.Context, intentID uuid.UUID) (Order, bool, error)
	// UpdateStatus is the conditional transition that is the
	// serialization point for webhook duplicates and timeout sweeps: it
	// fails (ok=false) if the current status is not in fromStatuses, so
	// at most one actor can move an order out of a given state.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, fromStatuses []Status, to Status, extra UpdateFields) (ok bool, err error)
	// ListExpiredHolds returns orders still HELD whose hold expired
	// before cutoff, for the timeout sweep to process.
	ListExpiredHolds(ctx context.Context, cutoff time.Time, limit int) ([]Order, error)
}

// UpdateFields carries the optional fields a status transition may also
// set in the same statement (paid_at on PAID, for instance).
type UpdateFields struct {
	PaidAt *int64 // unix seconds, nil to leave untouched
}
