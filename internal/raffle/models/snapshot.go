package models

import (
	"math/big"
	"time"

	"raffled/pkg/domain"
)

// Snapshot is the entire durable state of the raffle: lifecycle state,
// round clock, participant registry, recent winner, pending request, and
// the pool balance at the moment the snapshot was committed. Stores
// persist it write-through after every committed mutation so a restart
// can resume mid-round.
type Snapshot struct {
	State            State            `json:"state"`
	Players          []domain.Address `json:"players"`
	LastSettledAt    time.Time        `json:"last_settled_at"`
	RecentWinner     domain.Address   `json:"recent_winner"`
	PendingRequestID domain.RequestID `json:"pending_request_id"`
	Balance          *big.Int         `json:"balance"`
}

// Clone returns a deep copy so callers can hold a snapshot without
// aliasing the service's registry slice or balance.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Players = make([]domain.Address, len(s.Players))
	copy(out.Players, s.Players)
	if s.Balance != nil {
		out.Balance = new(big.Int).Set(s.Balance)
	}
	return out
}
