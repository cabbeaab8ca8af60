package models

import (
	"fmt"
	"math/big"
	"time"
)

// Oracle request parameters fixed for every round.
const (
	// RequestConfirmations is how many confirmations the coordinator
	// waits for before fulfilling.
	RequestConfirmations uint16 = 3
	// NumWords is how many random words each request asks for. Winner
	// selection only consumes the first.
	NumWords uint32 = 1
)

// Config holds the immutable raffle parameters. It is set once at
// construction and never mutated for the lifetime of the service.
type Config struct {
	// EntranceFee is the minimum amount, in base units, an entry must pay.
	EntranceFee *big.Int
	// KeyHash routes the randomness request to an oracle lane.
	KeyHash string
	// SubscriptionID identifies the funding subscription at the coordinator.
	SubscriptionID uint64
	// CallbackGasLimit bounds the compute budget of the fulfillment callback.
	CallbackGasLimit uint32
	// Interval is how long a round stays open before it becomes eligible
	// for settlement.
	Interval time.Duration
}

// Validate rejects configurations that could never run a round.
func (c Config) Validate() error {
	if c.EntranceFee == nil || c.EntranceFee.Sign() <= 0 {
		return fmt.Errorf("entrance fee must be positive")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.KeyHash == "" {
		return fmt.Errorf("key hash is required")
	}
	return nil
}
