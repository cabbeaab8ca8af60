package raffle

import (
	"context"
	"math/big"
	"time"

	"raffled/internal/raffle/models"
	"raffled/pkg/domain"
	dErrors "raffled/pkg/domain-errors"
)

// Read-only accessors. Each takes the state machine lock so it reflects
// the most recently committed mutation; none has side effects.

// EntranceFee returns the fixed per-entry fee.
func (s *Service) EntranceFee() *big.Int {
	return new(big.Int).Set(s.cfg.EntranceFee)
}

// Interval returns the configured round interval.
func (s *Service) Interval() time.Duration {
	return s.cfg.Interval
}

// RequestConfirmations returns the oracle confirmation count.
func (s *Service) RequestConfirmations() uint16 {
	return models.RequestConfirmations
}

// NumWords returns how many random words each request asks for.
func (s *Service) NumWords() uint32 {
	return models.NumWords
}

// State returns the current lifecycle state.
func (s *Service) State() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NumPlayers returns the current registry size.
func (s *Service) NumPlayers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Player returns the participant at the given registry index.
func (s *Service) Player(index int) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.players) {
		return "", ErrIndexOutOfRange
	}
	return s.players[index], nil
}

// RecentWinner returns the last settled round's winner, or the zero
// address before the first round completes.
func (s *Service) RecentWinner() domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentWinner
}

// LastSettledAt returns the round clock: construction time, then the time
// of every successful settlement.
func (s *Service) LastSettledAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSettledAt
}

// PendingRequest returns the outstanding randomness request id, empty when
// the raffle is open.
func (s *Service) PendingRequest() domain.RequestID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingRequest
}

// Balance returns the current pool balance.
func (s *Service) Balance(ctx context.Context) (*big.Int, error) {
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read pool balance")
	}
	return balance, nil
}

// Snapshot returns a consistent copy of the full public state.
func (s *Service) Snapshot(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return models.Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "read pool balance")
	}
	return models.Snapshot{
		State:            s.state,
		Players:          append([]domain.Address(nil), s.players...),
		LastSettledAt:    s.lastSettledAt,
		RecentWinner:     s.recentWinner,
		PendingRequestID: s.pendingRequest,
		Balance:          balance,
	}, nil
}
