package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"raffled/internal/raffle/models"
	"raffled/pkg/platform/sentinel"
)

// PostgresStore persists the snapshot as a single JSONB row. One raffle
// instance owns one economic pool, so the table holds exactly one row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL the store needs; applied by migrations or test setup.
const Schema = `
CREATE TABLE IF NOT EXISTS raffle_snapshot (
	id SMALLINT PRIMARY KEY CHECK (id = 1),
	doc JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

func (s *PostgresStore) Save(ctx context.Context, snapshot models.Snapshot) error {
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	query := `
		INSERT INTO raffle_snapshot (id, doc, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, doc, time.Now()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (models.Snapshot, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM raffle_snapshot WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snapshot models.Snapshot
	if err := json.Unmarshal(doc, &snapshot); err != nil {
		return models.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}
