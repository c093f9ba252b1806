// Package pg wraps a primary/replica Postgres connection pair behind a
// single lazily-initialized handle, running migrations on first connect.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/holdline/reserve-core/internal/platform/mlog"
)

// Connection is a hub that deals with Postgres connections and schema
// migrations for the order store.
type Connection struct {
	PrimaryDSN     string
	ReplicaDSN     string
	MigrationsPath string
	Logger         mlog.Logger

	db        *dbresolver.DB
	Connected bool
}

// Connect opens the primary and replica pools, runs pending migrations
// against the primary, and verifies connectivity.
func (c *Connection) Connect(ctx context.Context) error {
	c.Logger.Info("connecting to postgres...")

	primary, err := sql.Open("pgx", c.PrimaryDSN)
	if err != nil {
		return fmt.Errorf("open primary database: %w", err)
	}

	replicaDSN := c.ReplicaDSN
	if replicaDSN == "" {
		replicaDSN = c.PrimaryDSN
	}

	replica, err := sql.Open("pgx", replicaDSN)
	if err != nil {
		return fmt.Errorf("open replica database: %w", err)
	}

	resolver := dbresolver.New(
		dbresolver.WithPrimaryDBs(primary),
		dbresolver.WithReplicaDBs(replica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB),
	)

	if c.MigrationsPath != "" {
		driver, err := postgres.WithInstance(primary, &postgres.Config{
			MultiStatementEnabled: true,
			SchemaName:            "public",
		})
		if err != nil {
			return fmt.Errorf("build migration driver: %w", err)
		}

		m, err := migrate.NewWithDatabaseInstance("file://"+c.MigrationsPath, "postgres", driver)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	if err := resolver.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	c.db = &resolver
	c.Connected = true

	c.Logger.Info("connected to postgres")

	return nil
}

// GetDB returns the resolver-backed *sql.DB, connecting lazily if needed.
func (c *Connection) GetDB(ctx context.Context) (dbresolver.DB, error) {
	if c.db == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return *c.db, nil
}
