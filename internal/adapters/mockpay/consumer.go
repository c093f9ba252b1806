package mockpay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/holdline/reserve-core/internal/checkout"
	"github.com/holdline/reserve-core/internal/platform/mlog"
	"github.com/holdline/reserve-core/internal/platform/mq"
)

// Consumer drains the webhook queue and feeds each delivery into the
// same orchestrator.Webhook path the HTTP route uses, so the async and
// synchronous delivery mechanisms share one idempotent entry point.
type Consumer struct {
	Conn     *mq.Connection
	Queue    string
	Checkout *checkout.UseCase
	Logger   mlog.Logger
}

// Run consumes deliveries until ctx is canceled. Acks are sent
// unconditionally after the webhook handler returns: a permanent
// rejection (bad signature, unknown intent) is not worth requeuing, and a
// transient ledger/store error is logged and the delivery dropped, not
// requeued here, matching the Batcher's own no-retry policy (spec
// §4.1).
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.Conn.GetChannel(ctx)
	if err != nil {
		return fmt.Errorf("get rabbitmq channel: %w", err)
	}

	deliveries, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	c.Logger.Infof("mockpay consumer listening on queue %s", c.Queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			c.handle(ctx, d.Body)

			if err := d.Ack(false); err != nil {
				c.Logger.Warnf("ack webhook delivery: %v", err)
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		c.Logger.Errorf("unmarshal webhook event: %v", err)
		return
	}

	intentID, err := uuid.Parse(evt.IntentID)
	if err != nil {
		c.Logger.Errorf("parse intent id %q: %v", evt.IntentID, err)
		return
	}

	outcome := "paid"
	if evt.Event == "payment.failed" {
		outcome = "failed"
	}

	if err := c.Checkout.Webhook(ctx, checkout.WebhookInput{
		IntentID:  intentID,
		Outcome:   outcome,
		Timestamp: evt.Timestamp,
		Signature: evt.Signature,
	}); err != nil {
		c.Logger.Errorf("handle webhook for intent %s: %v", intentID, err)
	}
}
