// Package rdb wraps the Redis client used by the session store and
// checkout rate limiter behind a lazily-initialized handle.
package rdb

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/holdline/reserve-core/internal/platform/mlog"
)

// Connection is a hub that deals with Redis connections.
type Connection struct {
	ConnectionString string
	Logger           mlog.Logger

	Client    *redis.Client
	Connected bool
}

// Connect parses the connection string, opens the client, and pings it.
func (c *Connection) Connect(ctx context.Context) error {
	c.Logger.Info("connecting to redis...")

	opts, err := redis.ParseURL(c.ConnectionString)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	c.Client = client
	c.Connected = true

	c.Logger.Info("connected to redis")

	return nil
}

// GetClient returns the Redis client, connecting lazily if needed.
func (c *Connection) GetClient(ctx context.Context) (*redis.Client, error) {
	if c.Client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.Client, nil
}
