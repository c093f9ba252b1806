package in

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/holdline/reserve-core/internal/checkout"
	"github.com/holdline/reserve-core/internal/platform/apperr"
	"github.com/holdline/reserve-core/internal/platform/httpx"
	"github.com/holdline/reserve-core/internal/platform/mlog"
)

// WebhookHandler is the synchronous HTTP delivery path for provider
// callbacks, sharing the same orchestrator entry point the asynchronous
// RabbitMQ-backed mock delivery uses.
type WebhookHandler struct {
	Checkout *checkout.UseCase
}

// WebhookRequest is the decoded provider callback body, per spec.md §6.
type WebhookRequest struct {
	Event     string `json:"event" validate:"required,oneof=payment.paid payment.failed"`
	IntentID  string `json:"intent_id" validate:"required,uuid"`
	Timestamp int64  `json:"timestamp" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// Webhook handles POST /payments/webhook. Once the signature verifies, a
// duplicate delivery or an already terminal order returns 200 — those are
// idempotent no-ops, not errors. An unknown intent or order, and a store
// or ledger failure, are returned as error responses.
func (h *WebhookHandler) Webhook(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()
	logger := mlog.FromContext(ctx)

	req := i.(*WebhookRequest)

	intentID, err := uuid.Parse(req.IntentID)
	if err != nil {
		return httpx.WithError(c, apperr.ValidationError{Code: "invalid_intent_id", Message: "intent id must be a UUID"})
	}

	outcome := "paid"
	if req.Event == "payment.failed" {
		outcome = "failed"
	}

	if err := h.Checkout.Webhook(ctx, checkout.WebhookInput{
		IntentID:  intentID,
		Outcome:   outcome,
		Timestamp: req.Timestamp,
		Signature: req.Signature,
	}); err != nil {
		logger.Warnf("webhook for intent %s: %v", intentID, err)
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, fiber.Map{"received": true})
}
