package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/holdline/reserve-core/internal/platform/mlog"
)

const (
	orderKeyPrefix  = "session:order:"
	intentKeyPrefix = "session:intent:"
)

// RedisStore is the Store implementation used in multi-worker
// deployments, where in-process shared state cannot cross worker
// boundaries (spec §5).
type RedisStore struct {
	client *redis.Client
	logger mlog.Logger
}

// NewRedisStore builds a RedisStore over an already-connected client.
func NewRedisStore(client *redis.Client, logger mlog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func orderKey(orderID uuid.UUID) string {
	return orderKeyPrefix + orderID.String()
}

func intentKey(intentID uuid.UUID) string {
	return intentKeyPrefix + intentID.String()
}

// Put stores a session with the given TTL, which must be at least the
// hold timeout plus a grace margin per spec §3.
func (s *RedisStore) Put(ctx context.Context, sess Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, orderKey(sess.OrderID), data, ttl).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}

	return nil
}

// Get retrieves a session, returning found=false if it has expired or
// was never written (the caller should then fall back to the Order
// Store).
func (s *RedisStore) Get(ctx context.Context, orderID uuid.UUID) (Session, bool, error) {
	raw, err := s.client.Get(ctx, orderKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}

	if err != nil {
		return Session{}, false, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, false, fmt.Errorf("unmarshal session: %w", err)
	}

	return sess, true, nil
}

// Delete removes a session, called when an order reaches a terminal
// status.
func (s *RedisStore) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := s.client.Del(ctx, orderKey(orderID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// BindIntent records the payment_intent_id → order_id mapping used to
// correlate webhooks back to orders.
func (s *RedisStore) BindIntent(ctx context.Context, intentID, orderID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, intentKey(intentID), orderID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("bind intent: %w", err)
	}

	return nil
}

// ResolveIntent looks up the order id bound to a payment intent.
func (s *RedisStore) ResolveIntent(ctx context.Context, intentID uuid.UUID) (uuid.UUID, bool, error) {
	raw, err := s.client.Get(ctx, intentKey(intentID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.UUID{}, false, nil
	}

	if err != nil {
		return uuid.UUID{}, false, fmt.Errorf("resolve intent: %w", err)
	}

	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, false, fmt.Errorf("parse bound order id: %w", err)
	}

	return orderID, true, nil
}
