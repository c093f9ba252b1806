// Package mongoaudit is a side-channel audit trail of order state
// transitions, backed by MongoDB. It is never the source of truth for an
// order's status — the Postgres order store is — but it gives operators
// and support staff a readable history of what happened to an order.
package mongoaudit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/holdline/reserve-core/internal/platform/mlog"
)

// Connection is a hub that deals with a MongoDB connection.
type Connection struct {
	ConnectionString string
	Database         string
	Logger           mlog.Logger

	client    *mongo.Client
	Connected bool
}

// Connect dials MongoDB and verifies connectivity.
func (c *Connection) Connect(ctx context.Context) error {
	c.Logger.Info("connecting to mongodb...")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.ConnectionString))
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}

	c.client = client
	c.Connected = true

	c.Logger.Info("connected to mongodb")

	return nil
}

// GetDB returns the underlying database handle, connecting lazily.
func (c *Connection) GetDB(ctx context.Context) (*mongo.Database, error) {
	if c.client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.client.Database(c.Database), nil
}
