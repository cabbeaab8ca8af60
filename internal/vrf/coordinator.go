// Package vrf models the two-phase exchange with the randomness oracle.
// Phase one is a synchronous request that returns a correlation id; phase
// two is the oracle invoking the fulfillment entry point with the same id
// plus the random words, at an unspecified later time.
package vrf

import (
	"context"
	"math/big"

	"raffled/pkg/domain"
)

// RandomWordsRequest carries the oracle routing parameters for one request.
type RandomWordsRequest struct {
	KeyHash              string
	SubscriptionID       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
}

// Coordinator issues randomness requests. Implementations must return as
// soon as the request is accepted; the randomness itself arrives later
// through the Fulfiller.
type Coordinator interface {
	RequestRandomWords(ctx context.Context, req RandomWordsRequest) (domain.RequestID, error)
}

// Fulfiller receives the asynchronous second phase. The raffle service
// implements it; coordinators (or the HTTP callback handler fronting a
// remote one) invoke it.
type Fulfiller interface {
	FulfillRandomWords(ctx context.Context, id domain.RequestID, words []*big.Int) error
}

// FulfillerFunc adapts a function to the Fulfiller interface; wiring uses
// it to break the construction cycle between the service and the local
// coordinator.
type FulfillerFunc func(ctx context.Context, id domain.RequestID, words []*big.Int) error

func (f FulfillerFunc) FulfillRandomWords(ctx context.Context, id domain.RequestID, words []*big.Int) error {
	return f(ctx, id, words)
}
