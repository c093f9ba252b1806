package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/holdline/reserve-core/internal/platform/apperr"
)

// PostgresStore is the Postgres-backed Store implementation: the
// conditional UpdateStatus below is expressed as a single
// `UPDATE ... WHERE status IN (...)` statement — the serialization point
// spec.md requires, never emulated with a read-then-write.
type PostgresStore struct {
	db        dbresolver.DB
	tableName string
}

// NewPostgresStore wraps an already-connected resolver.
func NewPostgresStore(db dbresolver.DB) *PostgresStore {
	return &PostgresStore{db: db, tableName: "orders"}
}

func (s *PostgresStore) Insert(ctx context.Context, o Order) error {
	query, args, err := sqrl.Insert(s.tableName).
		Columns("order_id", "class", "amount_cents", "currency", "created_at",
			"hold_expires_at", "ticket_pending_id", "goodie_pending_id",
			"payment_intent_id", "status", "paid_at").
		Values(o.OrderID, o.Class, o.AmountCents, o.Currency, o.CreatedAt,
			o.HoldExpiresAt, o.TicketPendingID, nullableUUID(o.GoodiePendingID),
			o.PaymentIntentID, string(o.Status), o.PaidAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return translatePGError(err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orderID uuid.UUID) (Order, bool, error) {
	return s.queryOne(ctx, sqrl.Eq{"order_id": orderID})
}

func (s *PostgresStore) GetByIntent(ctx context.Context, intentID uuid.UUID) (Order, bool, error) {
	return s.queryOne(ctx, sqrl.Eq{"payment_intent_id": intentID})
}

func (s *PostgresStore) queryOne(ctx context.Context, where sqrl.Eq) (Order, bool, error) {
	query, args, err := sqrl.Select(
		"order_id", "class", "amount_cents", "currency", "created_at",
		"hold_expires_at", "ticket_pending_id", "goodie_pending_id",
		"payment_intent_id", "status", "paid_at").
		From(s.tableName).
		Where(where).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return Order{}, false, fmt.Errorf("build select: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, false, nil
	}

	if err != nil {
		return Order{}, false, translatePGError(err)
	}

	return o, true, nil
}

// UpdateStatus performs the conditional transition, the only
// serialization point for concurrent webhook/timeout-sweep races.
func (s *PostgresStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, fromStatuses []Status, to Status, extra UpdateFields) (bool, error) {
	builder := sqrl.Update(s.tableName).
		Set("status", string(to)).
		Where(sqrl.Eq{"order_id": orderID})

	fromStrings := make([]string, len(fromStatuses))
	for i, st := range fromStatuses {
		fromStrings[i] = string(st)
	}

	builder = builder.Where(sqrl.Eq{"status": fromStrings})

	if extra.PaidAt != nil {
		builder = builder.Set("paid_at", time.Unix(*extra.PaidAt, 0).UTC())
	}

	query, args, err := builder.PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, translatePGError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rows == 1, nil
}

func (s *PostgresStore) ListExpiredHolds(ctx context.Context, cutoff time.Time, limit int) ([]Order, error) {
	query, args, err := sqrl.Select(
		"order_id", "class", "amount_cents", "currency", "created_at",
		"hold_expires_at", "ticket_pending_id", "goodie_pending_id",
		"payment_intent_id", "status", "paid_at").
		From(s.tableName).
		Where(sqrl.Eq{"status": string(StatusHeld)}).
		Where(sqrl.Lt{"hold_expires_at": cutoff}).
		Limit(uint64(limit)).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translatePGError(err)
	}
	defer rows.Close()

	var out []Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, translatePGError(err)
		}

		out = append(out, o)
	}

	return out, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (Order, error) {
	var (
		o               Order
		statusRaw       string
		goodiePendingID sql.NullString
	)

	if err := row.Scan(
		&o.OrderID, &o.Class, &o.AmountCents, &o.Currency, &o.CreatedAt,
		&o.HoldExpiresAt, &o.TicketPendingID, &goodiePendingID,
		&o.PaymentIntentID, &statusRaw, &o.PaidAt,
	); err != nil {
		return Order{}, err
	}

	o.Status = Status(statusRaw)

	if goodiePendingID.Valid {
		id, err := uuid.Parse(goodiePendingID.String)
		if err != nil {
			return Order{}, fmt.Errorf("parse goodie_pending_id: %w", err)
		}

		o.GoodiePendingID = &id
	}

	return o, nil
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}

	return *id
}

// translatePGError maps constraint violations to typed business errors,
// mirroring the teacher's ValidatePGError pattern.
func translatePGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "orders_payment_intent_id_key":
			return apperr.EntityConflictError{
				Code:    "duplicate_intent",
				Message: "an order already exists for this payment intent",
				Err:     err,
			}
		case "orders_pkey":
			return apperr.EntityConflictError{
				Code:    "duplicate_order",
				Message: "an order with this id already exists",
				Err:     err,
			}
		}
	}

	return err
}
