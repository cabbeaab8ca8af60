package events

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffled/pkg/domain"
)

func TestPublisherSync(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	p := NewPublisher(store)

	err := p.Emit(ctx, Event{
		Type:   TypeEntryRecorded,
		Player: domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		Amount: "100",
	})
	require.NoError(t, err)

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, TypeEntryRecorded, got[0].Type)
	assert.False(t, got[0].Timestamp.IsZero(), "timestamp must be stamped on emit")
}

func TestPublisherKeepsExplicitTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	p := NewPublisher(store)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, p.Emit(ctx, Event{Type: TypeWinnerPicked, Timestamp: at}))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, at, got[0].Timestamp)
}

func TestPublisherAsyncDrainsOnClose(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	p := NewPublisher(store, WithAsyncBuffer(16))

	for range 10 {
		require.NoError(t, p.Emit(ctx, Event{Type: TypeEntryRecorded}))
	}
	p.Close()

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 10)

	// Close is idempotent.
	p.Close()
}

func TestPublisherAsyncDropsWhenFull(t *testing.T) {
	ctx := context.Background()
	// A store that blocks until released, so the buffer can fill.
	release := make(chan struct{})
	store := &blockingStore{release: release, inner: NewInMemoryStore()}
	p := NewPublisher(store, WithAsyncBuffer(1), WithLogger(slog.New(slog.DiscardHandler)))

	// One event may be in the drain loop and one in the buffer; everything
	// past that is dropped rather than blocking the caller.
	for range 5 {
		require.NoError(t, p.Emit(ctx, Event{Type: TypeEntryRecorded}))
	}
	close(release)
	p.Close()

	got, err := store.inner.List(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 2)
	assert.GreaterOrEqual(t, len(got), 1)
}

func TestPublisherLogsAppendFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	p := NewPublisher(store, WithAsyncBuffer(4), WithLogger(slog.New(slog.DiscardHandler)))

	require.NoError(t, p.Emit(ctx, Event{Type: TypeEntryRecorded}))
	p.Close()
}

type blockingStore struct {
	release chan struct{}
	inner   *InMemoryStore
}

func (s *blockingStore) Append(ctx context.Context, event Event) error {
	<-s.release
	return s.inner.Append(ctx, event)
}

type failingStore struct{}

func (s *failingStore) Append(context.Context, Event) error {
	return errors.New("store unavailable")
}
