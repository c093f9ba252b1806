// Package in holds the inbound HTTP adapter: fiber handlers and routes
// wired over the Checkout/Webhook Orchestrator, the Order Store, and the
// mock payment provider, mirroring the teacher's
// internal/adapters/http/in handler-per-resource layout.
package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/holdline/reserve-core/internal/checkout"
	"github.com/holdline/reserve-core/internal/ledger"
	"github.com/holdline/reserve-core/internal/platform/apperr"
	"github.com/holdline/reserve-core/internal/platform/httpx"
	"github.com/holdline/reserve-core/internal/platform/mlog"
	"github.com/holdline/reserve-core/internal/session"
)

// CheckoutHandler handles the checkout surface: placing a hold and
// shedding abusive clients before it reaches the Batcher.
type CheckoutHandler struct {
	Checkout    *checkout.UseCase
	RateLimiter *session.RateLimiter
}

// CheckoutRequest is the decoded, validated checkout body.
type CheckoutRequest struct {
	Class string `json:"class" validate:"required,oneof=A B"`
}

// CheckoutResponse is returned on a successful hold.
type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

// Checkout handles POST /checkout: rate-limits by IP, then places a hold
// for one ticket of the requested class plus a best-effort goodie.
func (h *CheckoutHandler) Checkout(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()
	logger := mlog.FromContext(ctx)

	req := i.(*CheckoutRequest)

	ip := httpx.GetRemoteAddress(c)

	if h.RateLimiter != nil {
		allowed, err := h.RateLimiter.Allow(ctx, ip)
		if err != nil {
			logger.Warnf("rate limiter unavailable, failing open: %v", err)
		} else if !allowed {
			return httpx.WithError(c, apperr.RateLimitedError{
				Code: "rate_limited", Message: "too many checkout attempts, try again shortly",
			})
		}
	}

	out, err := h.Checkout.Checkout(ctx, ledger.TicketClass(req.Class))
	if err != nil {
		return httpx.WithError(c, err)
	}

	logger.Infof("checkout created order %s", out.OrderID)

	return httpx.OK(c, CheckoutResponse{
		OrderID:     out.OrderID.String(),
		RedirectURL: out.RedirectURL,
	})
}
