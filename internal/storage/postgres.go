package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"vallet-go/internal/logger"
	"vallet-go/internal/order"

	"go.uber.org/zap"
)

// PostgresStore persists order snapshots in a single table and implements
// the store's load/save hook. Every save rewrites the full snapshot in one
// transaction, which keeps lifecycle flags fresh without tracking which
// record changed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the orders table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const q = `
	CREATE TABLE IF NOT EXISTS vallet_orders (
		id SERIAL PRIMARY KEY,
		order_id TEXT NOT NULL UNIQUE,
		record JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *PostgresStore) Load(ctx context.Context) ([]order.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM vallet_orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	defer rows.Close()

	var recs []order.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}

		var rec order.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode order record: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, snapshot []order.Record, added, removed *order.Record) error {
	log := logger.FromCtx(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vallet_orders`); err != nil {
		return err
	}

	for _, rec := range snapshot {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode order record: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vallet_orders (order_id, record) VALUES ($1, $2)`,
			rec.OrderID, raw,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	switch {
	case added != nil:
		log.Debug("order snapshot saved", zap.String("added", added.OrderID), zap.Int("count", len(snapshot)))
	case removed != nil:
		log.Debug("order snapshot saved", zap.String("removed", removed.OrderID), zap.Int("count", len(snapshot)))
	default:
		log.Debug("order snapshot saved", zap.Int("count", len(snapshot)))
	}
	return nil
}
