package events

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink drains the Postgres outbox into a Kafka topic. It runs as a
// background worker next to the HTTP server; a crash between produce and
// mark-published yields at-least-once delivery, which consumers must
// tolerate.
type KafkaSink struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// SinkOption configures a KafkaSink.
type SinkOption func(*KafkaSink)

// WithPollInterval sets how often the outbox is scanned.
func WithPollInterval(d time.Duration) SinkOption {
	return func(s *KafkaSink) {
		s.interval = d
	}
}

// WithBatchSize bounds how many rows one scan drains.
func WithBatchSize(n int) SinkOption {
	return func(s *KafkaSink) {
		s.batch = n
	}
}

// WithSinkLogger sets the worker logger.
func WithSinkLogger(logger *slog.Logger) SinkOption {
	return func(s *KafkaSink) {
		s.logger = logger
	}
}

func NewKafkaSink(db *sql.DB, client *kgo.Client, topic string, opts ...SinkOption) *KafkaSink {
	s := &KafkaSink{
		db:       db,
		client:   client,
		topic:    topic,
		interval: time.Second,
		batch:    100,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drains the outbox until ctx is cancelled.
func (s *KafkaSink) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.drainOnce(ctx); err != nil {
				s.logger.Error("drain outbox", "error", err)
			}
		}
	}
}

type outboxRow struct {
	id        string
	eventType string
	payload   []byte
}

func (s *KafkaSink) drainOnce(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, payload
		FROM raffle_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, s.batch)
	if err != nil {
		return fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var pending []outboxRow
	for rows.Next() {
		var r outboxRow
		if err := rows.Scan(&r.id, &r.eventType, &r.payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox rows: %w", err)
	}

	for _, r := range pending {
		record := &kgo.Record{
			Topic: s.topic,
			Key:   []byte(r.eventType),
			Value: r.payload,
		}
		if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce event %s: %w", r.id, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			UPDATE raffle_outbox SET published_at = $1 WHERE id = $2
		`, time.Now(), r.id); err != nil {
			return fmt.Errorf("mark event %s published: %w", r.id, err)
		}
	}
	return nil
}
