// Package checkout implements the Checkout/Webhook Orchestrator
// (component E): the state machine that composes the Resource Accounting
// layer, the Reservation Session Store, and the Order Store, and handles
// retries, timeout recovery, and duplicate webhooks.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/holdline/reserve-core/internal/ledger"
	"github.com/holdline/reserve-core/internal/orders"
	"github.com/holdline/reserve-core/internal/platform/apperr"
	"github.com/holdline/reserve-core/internal/platform/mlog"
	"github.com/holdline/reserve-core/internal/platform/mongoaudit"
	"github.com/holdline/reserve-core/internal/session"
)

// UseCase aggregates the repositories the orchestrator composes, in the
// same shape the teacher aggregates its own repository interfaces.
type UseCase struct {
	Accounting    *ledger.ResourceAccounting
	Orders        orders.Store
	Sessions      session.Store
	Audit         *mongoaudit.Store
	Logger        mlog.Logger
	HoldTimeout   time.Duration
	SessionTTL    time.Duration
	WebhookSecret []byte
	MockBaseURL   string
}

// CheckoutOutput is what a successful checkout returns to the caller.
type CheckoutOutput struct {
	OrderID     uuid.UUID
	RedirectURL string
}

// Checkout places a hold for one ticket of class (plus a best-effort
// goodie), and on success records the order and returns a redirect to
// the mock payment provider.
func (uc *UseCase) Checkout(ctx context.Context, class ledger.TicketClass) (CheckoutOutput, error) {
	orderID := uuid.New()

	hold, err := uc.Accounting.Hold(ctx, [16]byte(orderID), class, true, uc.HoldTimeout)
	if err != nil {
		return CheckoutOutput{}, apperr.UnprocessableOperationError{
			Code: "ledger_unavailable", Message: "ledger temporarily unavailable", Err: err,
		}
	}

	now := time.Now().UTC()

	if !hold.TicketOK {
		order := orders.Order{
			OrderID:         orderID,
			Class:           string(class),
			CreatedAt:       now,
			TicketPendingID: uuid.UUID(hold.TicketPendingID),
			PaymentIntentID: uuid.New(),
			Status:          orders.StatusFailed,
		}

		if err := uc.Orders.Insert(ctx, order); err != nil {
			uc.Logger.Errorf("insert failed order: %v", err)
		}

		uc.recordAudit(ctx, orderID, "", string(orders.StatusFailed), "sold out")

		return CheckoutOutput{}, apperr.ErrSoldOut
	}

	intentID := uuid.New()
	holdExpiresAt := now.Add(uc.HoldTimeout)

	var goodiePendingUUID *uuid.UUID
	if hold.GoodiePendingID != nil {
		id := uuid.UUID(*hold.GoodiePendingID)
		goodiePendingUUID = &id
	}

	order := orders.Order{
		OrderID:         orderID,
		Class:           string(class),
		CreatedAt:       now,
		HoldExpiresAt:   holdExpiresAt,
		TicketPendingID: uuid.UUID(hold.TicketPendingID),
		GoodiePendingID: goodiePendingUUID,
		PaymentIntentID: intentID,
		Status:          orders.StatusCreated,
	}

	if err := uc.Orders.Insert(ctx, order); err != nil {
		return CheckoutOutput{}, fmt.Errorf("insert order: %w", err)
	}

	uc.recordAudit(ctx, orderID, "", string(orders.StatusCreated), "")

	sess := session.Session{
		OrderID:         orderID,
		Class:           string(class),
		TicketPendingID: order.TicketPendingID,
		GoodiePendingID: goodiePendingUUID,
		HoldExpiresAt:   holdExpiresAt,
		PaymentIntentID: intentID,
	}

	if err := uc.Sessions.Put(ctx, sess, uc.SessionTTL); err != nil {
		uc.Logger.Errorf("put session: %v", err)
	}

	if err := uc.Sessions.BindIntent(ctx, intentID, orderID, uc.SessionTTL); err != nil {
		uc.Logger.Errorf("bind intent: %v", err)
	}

	ok, err := uc.Orders.UpdateStatus(ctx, orderID, []orders.Status{orders.StatusCreated}, orders.StatusHeld, orders.UpdateFields{})
	if err != nil {
		return CheckoutOutput{}, fmt.Errorf("transition to held: %w", err)
	}

	if ok {
		uc.recordAudit(ctx, orderID, string(orders.StatusCreated), string(orders.StatusHeld), "")
	}

	return CheckoutOutput{
		OrderID:     orderID,
		RedirectURL: fmt.Sprintf("%s/payments/mock/%s", uc.MockBaseURL, intentID),
	}, nil
}

// WebhookInput is a verified provider callback.
type WebhookInput struct {
	IntentID  uuid.UUID
	Outcome   string // "paid" or "failed"
	Timestamp int64
	Signature string
}

// Webhook handles a (possibly duplicated, reordered, or late) payment
// provider callback. Once the signature verifies, it returns nil (200 OK)
// when the order is already terminal or another actor won the race —
// those are success-by-idempotency outcomes, not errors. An intent or
// order that cannot be found, and a failing store or ledger call, are
// still reported as errors.
func (uc *UseCase) Webhook(ctx context.Context, in WebhookInput) error {
	event := webhookEvent(in.Outcome)
	if event == "" {
		return ErrUnknownOutcome
	}

	now := time.Now().UTC().Unix()

	if err := VerifyWebhook(uc.WebhookSecret, in.IntentID.String(), event, in.Signature, in.Timestamp, now); err != nil {
		if errors.Is(err, ErrSkewTooLarge) {
			return apperr.UnauthorizedError{Code: "webhook_skew", Message: "webhook timestamp outside accepted skew window", Err: err}
		}

		return apperr.ErrBadSignature
	}

	orderID, found, err := uc.resolveOrderID(ctx, in.IntentID)
	if err != nil {
		return fmt.Errorf("resolve intent: %w", err)
	}

	if !found {
		return apperr.ErrIntentNotFound
	}

	order, found, err := uc.Orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	if !found {
		return apperr.ErrOrderNotFound
	}

	if order.Status.Terminal() {
		return nil
	}

	class := ledger.TicketClass(order.Class)

	var goodiePendingID *[16]byte
	if order.GoodiePendingID != nil {
		b := [16]byte(*order.GoodiePendingID)
		goodiePendingID = &b
	}

	if in.Outcome == "paid" {
		return uc.settlePaid(ctx, order, class, goodiePendingID)
	}

	return uc.settleFailed(ctx, order, class, goodiePendingID)
}

func (uc *UseCase) settlePaid(ctx context.Context, order orders.Order, class ledger.TicketClass, goodiePendingID *[16]byte) error {
	post, err := uc.Accounting.Post(ctx, [16]byte(order.OrderID), class, [16]byte(order.TicketPendingID), goodiePendingID)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}

	to := orders.StatusPaid
	if !post.TicketPosted {
		to = orders.StatusPaidUnfulfilled
	}

	paidAt := time.Now().UTC().Unix()

	ok, err := uc.Orders.UpdateStatus(ctx, order.OrderID, []orders.Status{orders.StatusHeld}, to, orders.UpdateFields{PaidAt: &paidAt})
	if err != nil {
		return fmt.Errorf("transition to %s: %w", to, err)
	}

	if !ok {
		// Another actor (a concurrent webhook delivery or the sweep)
		// already moved this order out of HELD: idempotent no-op.
		return nil
	}

	_ = uc.Sessions.Delete(ctx, order.OrderID)
	uc.recordAudit(ctx, order.OrderID, string(orders.StatusHeld), string(to), "")

	return nil
}

func (uc *UseCase) settleFailed(ctx context.Context, order orders.Order, class ledger.TicketClass, goodiePendingID *[16]byte) error {
	if err := uc.Accounting.Void(ctx, [16]byte(order.OrderID), class, [16]byte(order.TicketPendingID), goodiePendingID); err != nil {
		return fmt.Errorf("void: %w", err)
	}

	ok, err := uc.Orders.UpdateStatus(ctx, order.OrderID, []orders.Status{orders.StatusHeld}, orders.StatusCanceled, orders.UpdateFields{})
	if err != nil {
		return fmt.Errorf("transition to canceled: %w", err)
	}

	if !ok {
		return nil
	}

	_ = uc.Sessions.Delete(ctx, order.OrderID)
	uc.recordAudit(ctx, order.OrderID, string(orders.StatusHeld), string(orders.StatusCanceled), "payment failed")

	return nil
}

// TimeoutSweep scans orders held past their hold expiry plus grace,
// voids their pending transfers (safe if the ledger already expired
// them), and transitions them to TIMEOUT.
func (uc *UseCase) TimeoutSweep(ctx context.Context, grace time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-grace)

	expired, err := uc.Orders.ListExpiredHolds(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("list expired holds: %w", err)
	}

	swept := 0

	for _, order := range expired {
		class := ledger.TicketClass(order.Class)

		var goodiePendingID *[16]byte
		if order.GoodiePendingID != nil {
			b := [16]byte(*order.GoodiePendingID)
			goodiePendingID = &b
		}

		if err := uc.Accounting.Void(ctx, [16]byte(order.OrderID), class, [16]byte(order.TicketPendingID), goodiePendingID); err != nil {
			uc.Logger.Errorf("sweep void order %s: %v", order.OrderID, err)
			continue
		}

		ok, err := uc.Orders.UpdateStatus(ctx, order.OrderID, []orders.Status{orders.StatusHeld}, orders.StatusTimeout, orders.UpdateFields{})
		if err != nil {
			uc.Logger.Errorf("sweep transition order %s: %v", order.OrderID, err)
			continue
		}

		if !ok {
			continue
		}

		_ = uc.Sessions.Delete(ctx, order.OrderID)
		uc.recordAudit(ctx, order.OrderID, string(orders.StatusHeld), string(orders.StatusTimeout), "hold expired")
		swept++
	}

	return swept, nil
}

func (uc *UseCase) resolveOrderID(ctx context.Context, intentID uuid.UUID) (uuid.UUID, bool, error) {
	if orderID, found, err := uc.Sessions.ResolveIntent(ctx, intentID); err == nil && found {
		return orderID, true, nil
	}

	// Session loss degrades to reading the Order Store, never to lost
	// funds (spec §4.3).
	order, found, err := uc.Orders.GetByIntent(ctx, intentID)
	if err != nil {
		return uuid.UUID{}, false, err
	}

	if !found {
		return uuid.UUID{}, false, nil
	}

	return order.OrderID, true, nil
}

func (uc *UseCase) recordAudit(ctx context.Context, orderID uuid.UUID, from, to, reason string) {
	if uc.Audit == nil {
		return
	}

	if err := uc.Audit.Record(ctx, mongoaudit.Event{
		OrderID: orderID.String(),
		From:    from,
		To:      to,
		Reason:  reason,
	}); err != nil {
		uc.Logger.Warnf("record audit event for %s: %v", orderID, err)
	}
}

func webhookEvent(outcome string) string {
	switch outcome {
	case "paid":
		return "payment.paid"
	case "failed":
		return "payment.failed"
	default:
		return ""
	}
}
