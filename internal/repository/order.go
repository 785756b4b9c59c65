package repository

import (
	"context"
	"fmt"

	"storefront/bot/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// OrderJournal keeps an append-only record of delivered orders
type OrderJournal interface {
	SaveOrder(ctx context.Context, order domain.Order) error
}

// Execer is the part of pgxpool.Pool the journal uses
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type orderJournal struct {
	db Execer
}

func NewOrderJournal(db Execer) OrderJournal {
	return &orderJournal{
		db: db,
	}
}

const createOrdersTable = `
	CREATE TABLE IF NOT EXISTS orders (
		id        UUID PRIMARY KEY,
		user_id   BIGINT NOT NULL,
		username  TEXT NOT NULL DEFAULT '',
		total     BIGINT NOT NULL,
		lines     JSONB NOT NULL,
		placed_at TIMESTAMPTZ NOT NULL
	)`

// EnsureSchema creates the orders table when it is missing
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, createOrdersTable); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}
	return nil
}

func (r *orderJournal) SaveOrder(ctx context.Context, order domain.Order) error {
	query := `
	INSERT INTO orders (id, user_id, username, total, lines, placed_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING`
	_, err := r.db.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Username,
		order.Summary.Total,
		order.Summary.Lines,
		order.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}

	return nil
}

type noopJournal struct{}

// NewNoopJournal is used when no database is configured
func NewNoopJournal() OrderJournal {
	return noopJournal{}
}

func (noopJournal) SaveOrder(context.Context, domain.Order) error {
	return nil
}
