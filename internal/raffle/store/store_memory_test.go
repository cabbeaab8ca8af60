package store

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffled/internal/raffle/models"
	"raffled/pkg/domain"
	"raffled/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load before save is not found", func(t *testing.T) {
		s := NewInMemoryStore()
		_, err := s.Load(ctx)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		s := NewInMemoryStore()
		snap := models.Snapshot{
			State:            models.StateCalculating,
			Players:          []domain.Address{"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
			LastSettledAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			PendingRequestID: "req-1",
			Balance:          big.NewInt(300),
		}
		require.NoError(t, s.Save(ctx, snap))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, snap, got)
	})

	t.Run("later save wins", func(t *testing.T) {
		s := NewInMemoryStore()
		require.NoError(t, s.Save(ctx, models.Snapshot{State: models.StateCalculating}))
		require.NoError(t, s.Save(ctx, models.Snapshot{State: models.StateOpen}))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.StateOpen, got.State)
	})

	t.Run("stored snapshot does not alias the caller's slices", func(t *testing.T) {
		s := NewInMemoryStore()
		players := []domain.Address{"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
		require.NoError(t, s.Save(ctx, models.Snapshot{State: models.StateOpen, Players: players}))
		players[0] = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), got.Players[0])
	})
}
