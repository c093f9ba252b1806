package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/holdline/reserve-core/internal/platform/mlog"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, mlog.NopLogger{})
}

// TestRedisStorePutGetRoundTrip is responsible to test that a stored
// session is retrievable with all fields intact
func TestRedisStorePutGetRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)

	sess := Session{
		OrderID:         uuid.New(),
		Class:           "A",
		TicketPendingID: uuid.New(),
		HoldExpiresAt:   time.Now().UTC().Truncate(time.Second),
		PaymentIntentID: uuid.New(),
	}

	require.NoError(t, store.Put(context.Background(), sess, time.Minute))

	got, found, err := store.Get(context.Background(), sess.OrderID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, sess.OrderID, got.OrderID)
	require.Equal(t, sess.Class, got.Class)
	require.Equal(t, sess.TicketPendingID, got.TicketPendingID)
	require.Equal(t, sess.PaymentIntentID, got.PaymentIntentID)
	require.True(t, sess.HoldExpiresAt.Equal(got.HoldExpiresAt))
}

// TestRedisStoreGetMissingReturnsNotFound is responsible to test that
// reading a never-written order id reports found=false, not an error
func TestRedisStoreGetMissingReturnsNotFound(t *testing.T) {
	store := newTestRedisStore(t)

	_, found, err := store.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, found)
}

// TestRedisStoreDeleteRemovesSession is responsible to test that Delete
// makes a subsequent Get report not found
func TestRedisStoreDeleteRemovesSession(t *testing.T) {
	store := newTestRedisStore(t)

	sess := Session{OrderID: uuid.New(), PaymentIntentID: uuid.New()}
	require.NoError(t, store.Put(context.Background(), sess, time.Minute))
	require.NoError(t, store.Delete(context.Background(), sess.OrderID))

	_, found, err := store.Get(context.Background(), sess.OrderID)
	require.NoError(t, err)
	require.False(t, found)
}

// TestRedisStoreBindAndResolveIntent is responsible to test the
// intent-id to order-id correlation used by the webhook handler
func TestRedisStoreBindAndResolveIntent(t *testing.T) {
	store := newTestRedisStore(t)

	intentID := uuid.New()
	orderID := uuid.New()

	require.NoError(t, store.BindIntent(context.Background(), intentID, orderID, time.Minute))

	resolved, found, err := store.ResolveIntent(context.Background(), intentID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, orderID, resolved)
}

// TestRedisStoreResolveUnknownIntentNotFound is responsible to test that
// resolving an intent id that was never bound reports found=false
func TestRedisStoreResolveUnknownIntentNotFound(t *testing.T) {
	store := newTestRedisStore(t)

	_, found, err := store.ResolveIntent(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, found)
}

// TestRedisStoreSessionExpiresWithTTL is responsible to test that a
// session written with a short TTL is gone once it elapses, matching
// Redis's own expiry rather than a reimplementation of it (miniredis
// ages TTLs only through FastForward)
func TestRedisStoreSessionExpiresWithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, mlog.NopLogger{})

	sess := Session{OrderID: uuid.New(), PaymentIntentID: uuid.New()}
	require.NoError(t, store.Put(context.Background(), sess, 10*time.Millisecond))

	mr.FastForward(50 * time.Millisecond)

	_, found, err := store.Get(context.Background(), sess.OrderID)
	require.NoError(t, err)
	require.False(t, found)
}
