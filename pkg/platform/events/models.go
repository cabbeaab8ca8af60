// Package events carries the raffle lifecycle notifications consumed by
// external indexers and UIs. Events are emitted from domain logic after a
// mutation commits; they are never part of the state machine's control
// flow, so a lost event cannot corrupt a round.
package events

import (
	"time"

	"raffled/pkg/domain"
)

// Type names a lifecycle event.
type Type string

const (
	// TypeEntryRecorded fires when a participant is admitted to the
	// current round.
	TypeEntryRecorded Type = "entry_recorded"
	// TypeSettlementRequested fires when the raffle moves to calculating
	// and a randomness request is issued.
	TypeSettlementRequested Type = "settlement_requested"
	// TypeWinnerPicked fires when a round settles and funds disburse.
	TypeWinnerPicked Type = "winner_picked"
)

// Event is one lifecycle notification. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	Type      Type
	Timestamp time.Time
	// Player is the admitted participant for entry_recorded.
	Player domain.Address
	// RequestID correlates settlement_requested with its fulfillment.
	RequestID domain.RequestID
	// Winner and Amount describe the disbursal for winner_picked.
	Winner domain.Address
	// Amount is a decimal string of base units; big.Int does not survive
	// JSON round-trips losslessly as a number.
	Amount string
	// Players is the registry size at emission time.
	Players int
}
