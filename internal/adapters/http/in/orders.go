package in

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/holdline/reserve-core/internal/orders"
	"github.com/holdline/reserve-core/internal/platform/apperr"
	"github.com/holdline/reserve-core/internal/platform/httpx"
	"github.com/holdline/reserve-core/internal/platform/mongoaudit"
)

// OrderHandler exposes read-only access to an order's current state and
// its audit trail, for the caller's success/cancel page to poll.
type OrderHandler struct {
	Orders orders.Store
	Audit  *mongoaudit.Store
}

// OrderResponse is the public shape of an order returned by GET
// /orders/{id}.
type OrderResponse struct {
	OrderID         string  `json:"order_id"`
	Class           string  `json:"class"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
	HoldExpiresAt   string  `json:"hold_expires_at,omitempty"`
	TicketPendingID string  `json:"ticket_pending_id,omitempty"`
	GoodiePendingID *string `json:"goodie_pending_id,omitempty"`
	PaidAt          *string `json:"paid_at,omitempty"`
}

// GetOrder handles GET /orders/{id}: the only user-visible way to learn
// whether a checkout ended up sold out, paid, canceled, or unfulfilled.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	ctx := c.UserContext()

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.WithError(c, apperr.ValidationError{Code: "invalid_order_id", Message: "order id must be a UUID"})
	}

	order, found, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		return httpx.WithError(c, apperr.InternalServerError{Code: "order_lookup_failed", Message: "could not look up order", Err: err})
	}

	if !found {
		return httpx.WithError(c, apperr.ErrOrderNotFound)
	}

	return httpx.OK(c, toOrderResponse(order))
}

func toOrderResponse(o orders.Order) OrderResponse {
	resp := OrderResponse{
		OrderID:         o.OrderID.String(),
		Class:           o.Class,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		TicketPendingID: o.TicketPendingID.String(),
	}

	if !o.HoldExpiresAt.IsZero() {
		resp.HoldExpiresAt = o.HoldExpiresAt.Format("2006-01-02T15:04:05Z07:00")
	}

	if o.GoodiePendingID != nil {
		s := o.GoodiePendingID.String()
		resp.GoodiePendingID = &s
	}

	if o.PaidAt != nil {
		s := o.PaidAt.Format("2006-01-02T15:04:05Z07:00")
		resp.PaidAt = &s
	}

	return resp
}

// AuditEventResponse is a single entry in an order's transition history.
type AuditEventResponse struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// GetOrderAudit handles GET /orders/{id}/audit: a support/debugging
// view of the Mongo-backed side-channel transition log — never the
// source of truth, which remains the Order Store.
func (h *OrderHandler) GetOrderAudit(c *fiber.Ctx) error {
	ctx := c.UserContext()

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.WithError(c, apperr.ValidationError{Code: "invalid_order_id", Message: "order id must be a UUID"})
	}

	if h.Audit == nil {
		return httpx.OK(c, []AuditEventResponse{})
	}

	events, err := h.Audit.ListByOrder(ctx, orderID.String())
	if err != nil {
		return httpx.WithError(c, apperr.InternalServerError{Code: "audit_lookup_failed", Message: "could not look up audit trail", Err: err})
	}

	out := make([]AuditEventResponse, len(events))
	for i, e := range events {
		out[i] = AuditEventResponse{
			From:      e.From,
			To:        e.To,
			Reason:    e.Reason,
			Timestamp: e.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return httpx.OK(c, out)
}
