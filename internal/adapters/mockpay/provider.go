// Package mockpay implements the external payment provider's interface
// to the core (spec.md §6), replacing a real processor per the explicit
// non-goal. It issues the redirect a checkout sends the browser to, and
// delivers the payment.paid/payment.failed webhook asynchronously over
// RabbitMQ rather than calling back in-process, so delivery is subject
// to real redelivery, duplication, and reordering the way a production
// provider's webhooks are.
package mockpay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/holdline/reserve-core/internal/checkout"
	"github.com/holdline/reserve-core/internal/platform/mlog"
	"github.com/holdline/reserve-core/internal/platform/mq"
)

// Event is the wire shape published to the webhook exchange and parsed
// back out by the Consumer, mirroring the HTTP webhook payload in
// spec.md §6 so both delivery paths share one signing scheme.
type Event struct {
	Event     string `json:"event"`
	IntentID  string `json:"intent_id"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// Provider simulates the payment provider side of the checkout flow: it
// decides an outcome for a given intent (deterministically, so retried
// mock-redirect hits are stable) and publishes the corresponding webhook
// event for asynchronous delivery.
type Provider struct {
	Conn          *mq.Connection
	Exchange      string
	RoutingKey    string
	WebhookSecret []byte
	Logger        mlog.Logger
	// Duplicate, when true, publishes every event twice to exercise the
	// orchestrator's webhook idempotency (spec.md §8.4).
	Duplicate bool
}

// Outcome reports the deterministic decision the mock provider makes for
// a given intent: "paid" unless the intent id's low bit is set, in which
// case "failed" — stable across repeated hits to the same redirect URL.
func Outcome(intentID uuid.UUID) string {
	if intentID[15]&1 == 1 {
		return "failed"
	}

	return "paid"
}

// Settle publishes the payment.paid or payment.failed event for intentID
// after a short simulated processing delay. It is called from the mock
// redirect handler in a background goroutine so the HTTP response itself
// is immediate, the way a real provider's redirect precedes its webhook.
func (p *Provider) Settle(ctx context.Context, intentID uuid.UUID, delay time.Duration) error {
	time.Sleep(delay)

	outcome := Outcome(intentID)
	event := webhookEventName(outcome)
	ts := time.Now().UTC().Unix()

	evt := Event{
		Event:     event,
		IntentID:  intentID.String(),
		Timestamp: ts,
		Signature: checkout.SignWebhook(p.WebhookSecret, intentID.String(), event, ts),
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	if err := p.publish(ctx, body); err != nil {
		return err
	}

	if p.Duplicate {
		// Best-effort second delivery; failure here must not fail the
		// first, already-successful publish.
		if err := p.publish(ctx, body); err != nil {
			p.Logger.Warnf("duplicate publish for intent %s: %v", intentID, err)
		}
	}

	return nil
}

// DeclareTopology ensures the durable exchange/queue/binding used for
// webhook delivery exist, idempotently. Safe to call on every process
// start, the same way ResourceAccounting.InitializeSupply is.
func DeclareTopology(ctx context.Context, conn *mq.Connection, exchange, queue, routingKey string) error {
	ch, err := conn.GetChannel(ctx)
	if err != nil {
		return fmt.Errorf("get rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

func (p *Provider) publish(ctx context.Context, body []byte) error {
	ch, err := p.Conn.GetChannel(ctx)
	if err != nil {
		return fmt.Errorf("get rabbitmq channel: %w", err)
	}

	return ch.PublishWithContext(ctx, p.Exchange, p.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func webhookEventName(outcome string) string {
	if outcome == "failed" {
		return "payment.failed"
	}

	return "payment.paid"
}
