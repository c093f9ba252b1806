package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdline/reserve-core/internal/ledger"
	"github.com/holdline/reserve-core/internal/orders"
	"github.com/holdline/reserve-core/internal/platform/apperr"
	"github.com/holdline/reserve-core/internal/platform/mlog"
	"github.com/holdline/reserve-core/internal/session"
)

// fakeOrderStore is a minimal in-memory orders.Store good enough to
// exercise the orchestrator's conditional-transition serialization.
type fakeOrderStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]orders.Order
	byIntent map[uuid.UUID]uuid.UUID
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		byID:     make(map[uuid.UUID]orders.Order),
		byIntent: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *fakeOrderStore) Insert(ctx context.Context, o orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[o.OrderID] = o
	s.byIntent[o.PaymentIntentID] = o.OrderID

	return nil
}

func (s *fakeOrderStore) Get(ctx context.Context, orderID uuid.UUID) (orders.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[orderID]

	return o, ok, nil
}

func (s *fakeOrderStore) GetByIntent(ctx context.Context, intentID uuid.UUID) (orders.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderID, ok := s.byIntent[intentID]
	if !ok {
		return orders.Order{}, false, nil
	}

	o := s.byID[orderID]

	return o, true, nil
}

func (s *fakeOrderStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, fromStatuses []orders.Status, to orders.Status, extra orders.UpdateFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[orderID]
	if !ok {
		return false, nil
	}

	matched := false

	for _, from := range fromStatuses {
		if o.Status == from {
			matched = true
			break
		}
	}

	if !matched {
		return false, nil
	}

	o.Status = to

	if extra.PaidAt != nil {
		paidAt := time.Unix(*extra.PaidAt, 0).UTC()
		o.PaidAt = &paidAt
	}

	s.byID[orderID] = o

	return true, nil
}

func (s *fakeOrderStore) ListExpiredHolds(ctx context.Context, cutoff time.Time, limit int) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []orders.Order

	for _, o := range s.byID {
		if o.Status == orders.StatusHeld && o.HoldExpiresAt.Before(cutoff) {
			out = append(out, o)

			if len(out) >= limit {
				break
			}
		}
	}

	return out, nil
}

// fakeSessionStore is a minimal in-memory session.Store.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]session.Session
	intents  map[uuid.UUID]uuid.UUID
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[uuid.UUID]session.Session),
		intents:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *fakeSessionStore) Put(ctx context.Context, sess session.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.OrderID] = sess

	return nil
}

func (s *fakeSessionStore) Get(ctx context.Context, orderID uuid.UUID) (session.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[orderID]

	return sess, ok, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, orderID)

	return nil
}

func (s *fakeSessionStore) BindIntent(ctx context.Context, intentID, orderID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intents[intentID] = orderID

	return nil
}

func (s *fakeSessionStore) ResolveIntent(ctx context.Context, intentID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderID, ok := s.intents[intentID]

	return orderID, ok, nil
}

func newTestUseCase(t *testing.T, supply ledger.Supply) (*UseCase, *fakeOrderStore) {
	t.Helper()

	mem := ledger.NewMemoryClient()
	t.Cleanup(mem.Close)

	accounting := ledger.NewResourceAccounting(ledger.NewBatchedClient(mem))
	require.NoError(t, accounting.InitializeSupply(context.Background(), supply))

	orderStore := newFakeOrderStore()

	uc := &UseCase{
		Accounting:    accounting,
		Orders:        orderStore,
		Sessions:      newFakeSessionStore(),
		Logger:        mlog.NopLogger{},
		HoldTimeout:   time.Minute,
		SessionTTL:    2 * time.Minute,
		WebhookSecret: []byte("test-secret"),
		MockBaseURL:   "http://mock.local",
	}

	return uc, orderStore
}

func webhookFor(uc *UseCase, intentID uuid.UUID, outcome string) WebhookInput {
	now := time.Now().UTC().Unix()
	event := webhookEvent(outcome)
	sig := SignWebhook(uc.WebhookSecret, intentID.String(), event, now)

	return WebhookInput{IntentID: intentID, Outcome: outcome, Timestamp: now, Signature: sig}
}

// TestCheckoutThenWebhookPaidHappyPath is S1: checkout succeeds, the
// webhook marks the order PAID, and the session is cleaned up.
func TestCheckoutThenWebhookPaidHappyPath(t *testing.T) {
	uc, store := newTestUseCase(t, ledger.Supply{TicketsA: 1, Goodies: 1})

	out, err := uc.Checkout(context.Background(), ledger.ClassA)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, out.OrderID)

	order, found, err := store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, orders.StatusHeld, order.Status)

	require.NoError(t, uc.Webhook(context.Background(), webhookFor(uc, order.PaymentIntentID, "paid")))

	order, found, err = store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, orders.StatusPaid, order.Status)

	_, found, err = uc.Sessions.Get(context.Background(), out.OrderID)
	require.NoError(t, err)
	assert.False(t, found, "session should be deleted once an order reaches a terminal status")
}

// TestCheckoutSoldOut is S2: with zero remaining capacity, checkout
// fails with ErrSoldOut.
func TestCheckoutSoldOut(t *testing.T) {
	uc, _ := newTestUseCase(t, ledger.Supply{TicketsA: 0, Goodies: 1})

	_, err := uc.Checkout(context.Background(), ledger.ClassA)
	assert.ErrorIs(t, err, apperr.ErrSoldOut)
}

// TestConcurrentCheckoutsExactlyOneWins is S2's concurrency form: with
// one unit of class-A capacity, exactly one of many concurrent
// checkouts succeeds.
func TestConcurrentCheckoutsExactlyOneWins(t *testing.T) {
	uc, _ := newTestUseCase(t, ledger.Supply{TicketsA: 1, Goodies: 5})

	const n = 25

	var wg sync.WaitGroup

	outcomes := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := uc.Checkout(context.Background(), ledger.ClassA)
			outcomes[i] = err
		}(i)
	}

	wg.Wait()

	wins := 0

	for _, err := range outcomes {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, apperr.ErrSoldOut)
		}
	}

	assert.Equal(t, 1, wins)
}

// TestWebhookPaymentFailed is S3: a "failed" webhook voids the hold and
// cancels the order, freeing capacity for another checkout.
func TestWebhookPaymentFailed(t *testing.T) {
	uc, store := newTestUseCase(t, ledger.Supply{TicketsA: 1, Goodies: 1})

	out, err := uc.Checkout(context.Background(), ledger.ClassA)
	require.NoError(t, err)

	order, _, err := store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)

	require.NoError(t, uc.Webhook(context.Background(), webhookFor(uc, order.PaymentIntentID, "failed")))

	order, _, err = store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCanceled, order.Status)

	// capacity is free again
	_, err = uc.Checkout(context.Background(), ledger.ClassA)
	assert.NoError(t, err)
}

// TestWebhookDuplicateIsIdempotent is S4: the same "paid" webhook
// delivered twice only applies once; the second delivery is a no-op,
// not an error.
func TestWebhookDuplicateIsIdempotent(t *testing.T) {
	uc, store := newTestUseCase(t, ledger.Supply{TicketsA: 1, Goodies: 1})

	out, err := uc.Checkout(context.Background(), ledger.ClassA)
	require.NoError(t, err)

	order, _, err := store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)

	in := webhookFor(uc, order.PaymentIntentID, "paid")

	require.NoError(t, uc.Webhook(context.Background(), in))
	require.NoError(t, uc.Webhook(context.Background(), in))

	order, _, err = store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, order.Status)
}

// TestWebhookBadSignatureRejected is responsible to test that a webhook
// whose signature does not match is rejected before touching any store.
func TestWebhookBadSignatureRejected(t *testing.T) {
	uc, _ := newTestUseCase(t, ledger.Supply{TicketsA: 1, Goodies: 1})

	out, err := uc.Checkout(context.Background(), ledger.ClassA)
	require.NoError(t, err)

	in := webhookFor(uc, out.OrderID, "paid") // signed for the wrong intent id
	in.Signature = "tampered"

	err = uc.Webhook(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrBadSignature)
}

// TestWebhookUnknownIntentNotFound is responsible to test that a
// well-signed webhook for an intent id nobody ever issued reports
// ErrIntentNotFound.
func TestWebhookUnknownIntentNotFound(t *testing.T) {
	uc, _ := newTestUseCase(t, ledger.Supply{TicketsA: 1, Goodies: 1})

	err := uc.Webhook(context.Background(), webhookFor(uc, uuid.New(), "paid"))
	assert.ErrorIs(t, err, apperr.ErrIntentNotFound)
}

// TestTimeoutSweepVoidsExpiredHoldsAndFreesCapacity is S6: a hold that
// is never settled is swept past its grace window, transitions to
// TIMEOUT, and its capacity becomes available again.
func TestTimeoutSweepVoidsExpiredHoldsAndFreesCapacity(t *testing.T) {
	uc, store := newTestUseCase(t, ledger.Supply{TicketsA: 1, Goodies: 1})
	uc.HoldTimeout = 10 * time.Millisecond

	out, err := uc.Checkout(context.Background(), ledger.ClassA)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	swept, err := uc.TimeoutSweep(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	order, _, err := store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusTimeout, order.Status)

	// capacity is free again
	_, err = uc.Checkout(context.Background(), ledger.ClassA)
	assert.NoError(t, err)
}

// TestWebhookAfterSweepIsIdempotentNoOp is S6 combined with a late
// webhook: once the sweep has already moved an order to TIMEOUT, a late
// "paid" webhook for the same intent must not re-open it.
func TestWebhookAfterSweepIsIdempotentNoOp(t *testing.T) {
	uc, store := newTestUseCase(t, ledger.Supply{TicketsA: 1, Goodies: 1})
	uc.HoldTimeout = 10 * time.Millisecond

	out, err := uc.Checkout(context.Background(), ledger.ClassA)
	require.NoError(t, err)

	order, _, err := store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	swept, err := uc.TimeoutSweep(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	require.NoError(t, uc.Webhook(context.Background(), webhookFor(uc, order.PaymentIntentID, "paid")))

	order, _, err = store.Get(context.Background(), out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusTimeout, order.Status, "a late paid webhook must not override a timed-out order")
}
