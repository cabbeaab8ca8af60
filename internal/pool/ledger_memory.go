package pool

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"raffled/pkg/domain"
	"raffled/pkg/platform/sentinel"
)

// PayoutRecord captures one completed disbursal for observers and tests.
type PayoutRecord struct {
	To     domain.Address
	Amount *big.Int
	At     time.Time
}

// InMemoryLedger keeps the pool balance in process memory. It favors
// clarity over performance; production deployments put a real payment
// rail behind the Ledger interface.
type InMemoryLedger struct {
	mu      sync.RWMutex
	balance *big.Int
	payouts []PayoutRecord
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{balance: new(big.Int)}
}

func (l *InMemoryLedger) Deposit(_ context.Context, from domain.Address, amount *big.Int) error {
	if from.IsZero() {
		return fmt.Errorf("deposit from zero address")
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("deposit amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance.Add(l.balance, amount)
	return nil
}

func (l *InMemoryLedger) Balance(_ context.Context) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.balance), nil
}

func (l *InMemoryLedger) Payout(_ context.Context, to domain.Address, amount *big.Int) error {
	if to.IsZero() {
		return fmt.Errorf("payout to zero address")
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("payout amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance.Cmp(amount) < 0 {
		return fmt.Errorf("payout %s exceeds pool balance %s: %w", amount, l.balance, sentinel.ErrInvalidState)
	}
	l.balance.Sub(l.balance, amount)
	l.payouts = append(l.payouts, PayoutRecord{To: to, Amount: new(big.Int).Set(amount), At: time.Now()})
	return nil
}

// Payouts returns a copy of the disbursal history.
func (l *InMemoryLedger) Payouts() []PayoutRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]PayoutRecord, len(l.payouts))
	copy(out, l.payouts)
	return out
}
