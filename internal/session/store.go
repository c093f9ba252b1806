// Package session implements the Reservation Session Store (component
// C): idempotency and rate-limited session data for in-flight checkouts,
// keyed by order id and by payment-intent id.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the information needed to resume settlement for an order
// without re-reading the Order Store.
type Session struct {
	OrderID         uuid.UUID  `json:"order_id"`
	Class           string     `json:"class"`
	TicketPendingID uuid.UUID  `json:"ticket_pending_id"`
	GoodiePendingID *uuid.UUID `json:"goodie_pending_id,omitempty"`
	HoldExpiresAt   time.Time  `json:"hold_expires_at"`
	PaymentIntentID uuid.UUID  `json:"payment_intent_id"`
}

// Store is the key-value cache behind checkout/webhook idempotency.
// Writes are last-writer-wins; there are no multi-key transactions.
// Losing a session degrades to reading the Order Store, never to lost
// funds — every method here is best-effort from the orchestrator's
// point of view.
type Store interface {
	Put(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, orderID uuid.UUID) (Session, bool, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	BindIntent(ctx context.Context, intentID, orderID uuid.UUID, ttl time.Duration) error
	ResolveIntent(ctx context.Context, intentID uuid.UUID) (uuid.UUID, bool, error)
}
