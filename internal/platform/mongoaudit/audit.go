package mongoaudit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "order_audit_events"

// Event is a single recorded transition for an order.
type Event struct {
	OrderID   string    `bson:"order_id"`
	From      string    `bson:"from"`
	To        string    `bson:"to"`
	Reason    string    `bson:"reason,omitempty"`
	Metadata  bson.M    `bson:"metadata,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

// Store appends and lists audit events for orders.
type Store struct {
	conn *Connection
}

// NewStore builds a Store over the given connection.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// Record appends a transition event. Failures are non-fatal to the
// caller's business operation — the audit trail is a side-channel, never
// the source of truth.
func (s *Store) Record(ctx context.Context, evt Event) error {
	db, err := s.conn.GetDB(ctx)
	if err != nil {
		return fmt.Errorf("get mongo db: %w", err)
	}

	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	if _, err := db.Collection(collectionName).InsertOne(ctx, evt); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}

// ListByOrder returns every recorded event for an order, oldest first.
func (s *Store) ListByOrder(ctx context.Context, orderID string) ([]Event, error) {
	db, err := s.conn.GetDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("get mongo db: %w", err)
	}

	cur, err := db.Collection(collectionName).Find(
		ctx,
		bson.M{"order_id": orderID},
		options.Find().SetSort(bson.M{"timestamp": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	return events, nil
}
