// Package store persists the raffle's durable state. The service writes a
// full snapshot through after every committed mutation and loads it once
// at boot, so a restart resumes mid-round instead of orphaning a
// calculating raffle.
package store

import (
	"context"

	"raffled/internal/raffle/models"
)

// SnapshotStore persists the single raffle snapshot. Load returns
// sentinel.ErrNotFound (possibly wrapped) when no snapshot has been saved
// yet.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot models.Snapshot) error
	Load(ctx context.Context) (models.Snapshot, error)
}
