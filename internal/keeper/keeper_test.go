package keeper

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffled/internal/raffle"
	"raffled/internal/raffle/models"
	"raffled/pkg/domain"
)

// fakeUpkeeper scripts the eligibility answer and records perform calls.
type fakeUpkeeper struct {
	mu       sync.Mutex
	check    raffle.Check
	checkErr error
	perform  int
	performE error
}

func (f *fakeUpkeeper) CheckUpkeep(context.Context) (raffle.Check, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.check, f.checkErr
}

func (f *fakeUpkeeper) PerformUpkeep(context.Context) (domain.RequestID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perform++
	if f.performE != nil {
		return "", f.performE
	}
	return "req-1", nil
}

func (f *fakeUpkeeper) performed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perform
}

func newTestKeeper(u *fakeUpkeeper) *Keeper {
	return New(context.Background(), u, slog.New(slog.DiscardHandler))
}

func TestRegisterRejectsBadSchedule(t *testing.T) {
	k := newTestKeeper(&fakeUpkeeper{})
	require.Error(t, k.Register("not a schedule"))
	require.NoError(t, k.Register("*/10 * * * * *"))
}

func TestTickSkipsIneligible(t *testing.T) {
	u := &fakeUpkeeper{check: raffle.Check{Eligible: false}}
	k := newTestKeeper(u)

	k.RunOnce()
	assert.Zero(t, u.performed())
}

func TestTickPerformsWhenEligible(t *testing.T) {
	u := &fakeUpkeeper{check: raffle.Check{Eligible: true}}
	k := newTestKeeper(u)

	k.RunOnce()
	assert.Equal(t, 1, u.performed())
}

func TestTickSwallowsCheckError(t *testing.T) {
	u := &fakeUpkeeper{checkErr: errors.New("ledger down")}
	k := newTestKeeper(u)

	k.RunOnce()
	assert.Zero(t, u.performed())
}

func TestTickToleratesUpkeepRace(t *testing.T) {
	// Another keeper settled between check and perform; the tick must
	// treat the refusal as benign.
	u := &fakeUpkeeper{
		check: raffle.Check{Eligible: true},
		performE: &raffle.UpkeepNotNeededError{
			Balance: big.NewInt(0),
			State:   models.StateCalculating,
		},
	}
	k := newTestKeeper(u)

	k.RunOnce()
	assert.Equal(t, 1, u.performed())
}

func TestStartStop(t *testing.T) {
	u := &fakeUpkeeper{}
	k := newTestKeeper(u)
	require.NoError(t, k.Register("0 0 1 1 1 *"))

	k.Start()
	k.Stop()
}
