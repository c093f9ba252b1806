package in

import (
	"context"
	"math/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/holdline/reserve-core/internal/adapters/mockpay"
	"github.com/holdline/reserve-core/internal/platform/apperr"
	"github.com/holdline/reserve-core/internal/platform/httpx"
	"github.com/holdline/reserve-core/internal/platform/mlog"
	"github.com/holdline/reserve-core/internal/session"
)

// MockPayHandler is the mock provider's redirect target (spec.md §6): it
// stands in for the hosted checkout page a real provider would present,
// redirecting immediately while the outcome webhook settles
// asynchronously over RabbitMQ.
type MockPayHandler struct {
	Sessions session.Store
	Provider *mockpay.Provider
	Logger   mlog.Logger
}

const (
	minSettleDelay = 20 * time.Millisecond
	maxSettleDelay = 150 * time.Millisecond
)

// Redirect handles GET /payments/mock/{intent_id}: resolves the intent
// to its order, schedules the asynchronous webhook, and redirects the
// browser to the success or cancel page the Outcome already decided.
func (h *MockPayHandler) Redirect(c *fiber.Ctx) error {
	ctx := c.UserContext()

	intentID, err := uuid.Parse(c.Params("intent_id"))
	if err != nil {
		return httpx.WithError(c, apperr.ValidationError{Code: "invalid_intent_id", Message: "intent id must be a UUID"})
	}

	orderID, found, err := h.Sessions.ResolveIntent(ctx, intentID)
	if err != nil || !found {
		return httpx.WithError(c, apperr.ErrIntentNotFound)
	}

	outcome := mockpay.Outcome(intentID)

	go func() {
		settleCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		delay := minSettleDelay + time.Duration(rand.Int63n(int64(maxSettleDelay-minSettleDelay)))

		if err := h.Provider.Settle(settleCtx, intentID, delay); err != nil {
			h.Logger.Errorf("settle intent %s: %v", intentID, err)
		}
	}()

	if outcome == "paid" {
		return c.Redirect("/success?order_id="+orderID.String(), fiber.StatusFound)
	}

	return c.Redirect("/cancel?order_id="+orderID.String(), fiber.StatusFound)
}
