package raffle

import (
	"fmt"
	"math/big"

	"raffled/internal/raffle/models"
	"raffled/pkg/domain"
	dErrors "raffled/pkg/domain-errors"
)

// Entry and query failures. These are surfaced to the caller and never
// mutate state.
var (
	// ErrInsufficientPayment rejects entries paying below the entrance fee.
	ErrInsufficientPayment = dErrors.New(dErrors.CodeInvalidInput, "entry amount below entrance fee")
	// ErrNotOpen rejects entries while a settlement is calculating.
	ErrNotOpen = dErrors.New(dErrors.CodeInvalidState, "raffle is not open")
	// ErrIndexOutOfRange rejects player lookups past the registry size.
	ErrIndexOutOfRange = dErrors.New(dErrors.CodeNotFound, "player index out of range")
	// ErrNoPendingSettlement rejects fulfillments while the raffle is open.
	ErrNoPendingSettlement = dErrors.New(dErrors.CodeInvalidState, "no settlement pending")
)

var errUpkeepNotNeeded = dErrors.New(dErrors.CodeConflict, "upkeep not needed")

// UpkeepNotNeededError reports a premature settlement request together
// with the snapshot that failed the eligibility check, so keepers can log
// exactly which condition did not hold.
type UpkeepNotNeededError struct {
	Balance *big.Int
	Players int
	State   models.State
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf("upkeep not needed: balance=%s players=%d state=%s", e.Balance, e.Players, e.State)
}

// Unwrap ties the payload to the shared conflict code so transport
// translation and errors.Is checks work without knowing the struct.
func (e *UpkeepNotNeededError) Unwrap() error {
	return errUpkeepNotNeeded
}

var errTransferFailed = dErrors.New(dErrors.CodeUnavailable, "winner payout failed")

// TransferFailedError reports an aborted settlement. The raffle stays
// calculating and none of the round's monetary effects are finalized; a
// later fulfillment retry is safe.
type TransferFailedError struct {
	Winner domain.Address
	Amount *big.Int
	Err    error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("transfer of %s to winner %s failed: %v", e.Amount, e.Winner, e.Err)
}

func (e *TransferFailedError) Unwrap() error {
	return errTransferFailed
}
