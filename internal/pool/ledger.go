// Package pool holds custody of the pooled entrance fees for the current
// round. The raffle service is the only writer: deposits on entry, one
// draining payout at settlement.
package pool

import (
	"context"
	"math/big"

	"raffled/pkg/domain"
)

// Ledger is the custody boundary. Payout is allowed to fail (the rail
// behind it may refuse the transfer); callers must treat a failed payout
// as aborting their whole operation.
type Ledger interface {
	// Deposit credits amount to the pool on behalf of from.
	Deposit(ctx context.Context, from domain.Address, amount *big.Int) error
	// Balance reports the current pool balance.
	Balance(ctx context.Context) (*big.Int, error)
	// Payout debits amount from the pool and disburses it to the winner.
	Payout(ctx context.Context, to domain.Address, amount *big.Int) error
}
