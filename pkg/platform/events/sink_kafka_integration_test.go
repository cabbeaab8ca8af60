//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"raffled/pkg/domain"
	"raffled/pkg/testutil/containers"
)

// =============================================================================
// Kafka Sink Integration Suite
// =============================================================================
// Runs the outbox-to-Kafka pipeline against real Postgres and Redpanda:
// events appended to the outbox must come out of the topic exactly once
// per drain, with published rows marked so a second drain is a no-op.

type KafkaSinkIntegrationSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	store    *PostgresStore
	producer *kgo.Client
}

func TestKafkaSinkIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(KafkaSinkIntegrationSuite))
}

func (s *KafkaSinkIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.pg.Apply(ctx, Schema))
	s.store = NewPostgresStore(s.pg.DB)

	s.redpanda = containers.NewRedpandaContainer(s.T())
	s.producer = s.redpanda.NewClient(s.T())
}

// newTopic provisions a fresh single-partition topic so each test consumes
// only its own records.
func (s *KafkaSinkIntegrationSuite) newTopic(name string) string {
	admin := kadm.NewClient(s.producer)
	_, err := admin.CreateTopics(context.Background(), 1, 1, nil, name)
	s.Require().NoError(err)
	return name
}

func (s *KafkaSinkIntegrationSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "raffle_outbox"))
}

func (s *KafkaSinkIntegrationSuite) TestDrainPublishesOutboxRows() {
	ctx := context.Background()
	topic := s.newTopic("raffle.events.drain")

	appended := []Event{
		{
			Type:      TypeEntryRecorded,
			Timestamp: time.Now(),
			Player:    domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			Amount:    "100",
			Players:   1,
		},
		{
			Type:      TypeWinnerPicked,
			Timestamp: time.Now(),
			RequestID: "req-1",
			Winner:    domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			Amount:    "100",
			Players:   1,
		},
	}
	for _, e := range appended {
		s.Require().NoError(s.store.Append(ctx, e))
	}

	sink := NewKafkaSink(s.pg.DB, s.producer, topic)
	s.Require().NoError(sink.drainOnce(ctx))

	consumer := s.redpanda.NewClient(s.T(),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < len(appended) {
		fetches := consumer.PollFetches(fetchCtx)
		s.Require().NoError(fetches.Err())
		records = append(records, fetches.Records()...)
	}
	s.Require().Len(records, len(appended))

	s.Equal(string(TypeEntryRecorded), string(records[0].Key))
	var payload outboxPayload
	s.Require().NoError(json.Unmarshal(records[0].Value, &payload))
	s.Equal(string(TypeEntryRecorded), payload.Type)
	s.Equal("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", payload.Player)
	s.Equal("100", payload.Amount)

	var winner outboxPayload
	s.Require().NoError(json.Unmarshal(records[1].Value, &winner))
	s.Equal(string(TypeWinnerPicked), winner.Type)
	s.Equal("req-1", winner.RequestID)
}

func (s *KafkaSinkIntegrationSuite) TestDrainIsIdempotentOncePublished() {
	ctx := context.Background()
	topic := s.newTopic("raffle.events.idempotent")

	s.Require().NoError(s.store.Append(ctx, Event{
		Type:      TypeSettlementRequested,
		Timestamp: time.Now(),
		RequestID: "req-2",
		Players:   3,
	}))

	sink := NewKafkaSink(s.pg.DB, s.producer, topic)
	s.Require().NoError(sink.drainOnce(ctx))
	s.Require().NoError(sink.drainOnce(ctx))

	var unpublished int
	err := s.pg.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM raffle_outbox WHERE published_at IS NULL`,
	).Scan(&unpublished)
	s.Require().NoError(err)
	s.Zero(unpublished)

	var published int
	err = s.pg.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM raffle_outbox WHERE published_at IS NOT NULL`,
	).Scan(&published)
	s.Require().NoError(err)
	s.Equal(1, published)
}
