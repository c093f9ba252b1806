// Package orders implements the Order Store (component D): the durable
// record of orders and their terminal or intermediate states.
package orders

import (
	"time"

	"github.com/google/uuid"
)

// Status is an order's position in the checkout/webhook state machine.
type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusHeld            Status = "HELD"
	StatusPaid            Status = "PAID"
	StatusPaidUnfulfilled Status = "PAID_UNFULFILLED"
	StatusFailed          Status = "FAILED"
	StatusCanceled        Status = "CANCELED"
	StatusTimeout         Status = "TIMEOUT"
)

// Terminal reports whether status can never transition again.
func (s Status) Terminal() bool {
	switch s {
	case StatusPaid, StatusPaidUnfulfilled, StatusFailed, StatusCanceled, StatusTimeout:
		return true
	default:
		return false
	}
}

// Order is the persistent entity tracked by the Order Store.
type Order struct {
	OrderID         uuid.UUID
	Class           string
	AmountCents     int64
	Currency        string
	CreatedAt       time.Time
	HoldExpiresAt   time.Time
	TicketPendingID uuid.UUID
	GoodiePendingID *uuid.UUID
	PaymentIntentID uuid.UUID
	Status          Status
	PaidAt          *time.Time
}
