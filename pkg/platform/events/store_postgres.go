package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Events are written to the outbox table and published to Kafka by the
// sink worker; Kafka is the source of truth for downstream consumers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL the outbox needs; applied by migrations or test setup.
const Schema = `
CREATE TABLE IF NOT EXISTS raffle_outbox (
	id UUID PRIMARY KEY,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS raffle_outbox_unpublished
	ON raffle_outbox (created_at) WHERE published_at IS NULL;
`

// outboxPayload is the JSON structure published to Kafka. Field names are
// stable; consumers deserialize against them.
type outboxPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Player    string `json:"player,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Winner    string `json:"winner,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Players   int    `json:"players"`
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	eventID := uuid.New()

	payload := outboxPayload{
		ID:        eventID.String(),
		Type:      string(event.Type),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Player:    event.Player.String(),
		RequestID: event.RequestID.String(),
		Winner:    event.Winner.String(),
		Amount:    event.Amount,
		Players:   event.Players,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	query := `
		INSERT INTO raffle_outbox (id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, eventID, string(event.Type), payloadBytes, event.Timestamp); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
