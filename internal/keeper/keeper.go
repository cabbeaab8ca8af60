// Package keeper is the in-process automated trigger: it polls the raffle
// for upkeep eligibility on a cron schedule and performs the settlement
// request when the conditions hold. External keepers can drive the same
// flow through the HTTP upkeep endpoints instead.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"raffled/internal/raffle"
	"raffled/pkg/domain"
)

// Upkeeper is the slice of the raffle service the keeper drives.
type Upkeeper interface {
	CheckUpkeep(ctx context.Context) (raffle.Check, error)
	PerformUpkeep(ctx context.Context) (domain.RequestID, error)
}

// Keeper manages the cron task that polls and performs upkeep.
type Keeper struct {
	cron   *cron.Cron
	raffle Upkeeper
	logger *slog.Logger
	ctx    context.Context
}

// New creates a Keeper. ctx bounds the work each tick performs.
func New(ctx context.Context, upkeeper Upkeeper, logger *slog.Logger) *Keeper {
	return &Keeper{
		cron:   cron.New(cron.WithSeconds()),
		raffle: upkeeper,
		logger: logger,
		ctx:    ctx,
	}
}

// Register schedules the upkeep tick. The schedule uses cron syntax with a
// seconds field, e.g. "*/10 * * * * *".
func (k *Keeper) Register(schedule string) error {
	if _, err := k.cron.AddFunc(schedule, k.tick); err != nil {
		return fmt.Errorf("register upkeep task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (k *Keeper) Start() {
	k.cron.Start()
	k.logger.Info("keeper started")
}

// Stop stops the cron scheduler gracefully.
func (k *Keeper) Stop() {
	<-k.cron.Stop().Done()
	k.logger.Info("keeper stopped")
}

// RunOnce executes one upkeep tick immediately; used at startup and in
// tests.
func (k *Keeper) RunOnce() {
	k.tick()
}

func (k *Keeper) tick() {
	check, err := k.raffle.CheckUpkeep(k.ctx)
	if err != nil {
		k.logger.Error("check upkeep", "error", err)
		return
	}
	if !check.Eligible {
		k.logger.Debug("upkeep not needed",
			"open", check.Open,
			"interval_elapsed", check.IntervalElapsed,
			"players", check.Players,
			"balance", check.Balance,
		)
		return
	}

	requestID, err := k.raffle.PerformUpkeep(k.ctx)
	if err != nil {
		// Another caller may have won the race between check and perform;
		// that is not a fault.
		var notNeeded *raffle.UpkeepNotNeededError
		if errors.As(err, &notNeeded) {
			k.logger.Debug("upkeep raced", "state", notNeeded.State)
			return
		}
		k.logger.Error("perform upkeep", "error", err)
		return
	}
	k.logger.Info("upkeep performed", "request_id", requestID)
}
