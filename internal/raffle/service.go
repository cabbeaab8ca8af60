// Package raffle implements the raffle state machine: entry admission,
// upkeep eligibility, randomness-request issuance, and settlement on
// fulfillment. The service is the single owner of the participant registry
// and the round clock; one mutex serializes every operation, mirroring the
// host-serialized execution the design assumes.
package raffle

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"raffled/internal/platform/metrics"
	"raffled/internal/pool"
	"raffled/internal/raffle/models"
	"raffled/internal/raffle/store"
	"raffled/internal/vrf"
	"raffled/pkg/domain"
	dErrors "raffled/pkg/domain-errors"
	"raffled/pkg/platform/events"
	"raffled/pkg/platform/sentinel"
)

var tracer = otel.Tracer("raffled/raffle")

// EventEmitter publishes lifecycle notifications. Emission failures are
// logged, never surfaced: events are observability, not control flow.
type EventEmitter interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service is the raffle state machine. All mutating operations and all
// queries go through s.mu, so no observer ever sees torn state.
type Service struct {
	cfg         models.Config
	ledger      pool.Ledger
	coordinator vrf.Coordinator
	snapshots   store.SnapshotStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	emitter     EventEmitter
	now         func() time.Time

	mu             sync.Mutex
	state          models.State
	players        []domain.Address
	lastSettledAt  time.Time
	recentWinner   domain.Address
	pendingRequest domain.RequestID
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics wires Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEvents wires the lifecycle event publisher.
func WithEvents(emitter EventEmitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

// WithSnapshotStore wires durable snapshot persistence. The snapshot is
// loaded once at construction and written through after every committed
// mutation.
func WithSnapshotStore(st store.SnapshotStore) Option {
	return func(s *Service) {
		s.snapshots = st
	}
}

// WithNow overrides the clock; tests use it to elapse the round interval.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New builds the state machine. The raffle starts open with the round
// clock set to now, unless a snapshot store holds a previous state, in
// which case the service resumes it (including a calculating round whose
// fulfillment is still outstanding).
func New(cfg models.Config, ledger pool.Ledger, coordinator vrf.Coordinator, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid raffle config")
	}
	if ledger == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "pool ledger is required")
	}
	if coordinator == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "vrf coordinator is required")
	}

	s := &Service{
		cfg:         cfg,
		ledger:      ledger,
		coordinator: coordinator,
		logger:      slog.Default(),
		now:         time.Now,
		state:       models.StateOpen,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSettledAt = s.now()

	if s.snapshots != nil {
		if err := s.resume(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Service) resume(ctx context.Context) error {
	snap, err := s.snapshots.Load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load raffle snapshot")
	}
	if !snap.State.IsValid() {
		return dErrors.New(dErrors.CodeInternal, "snapshot holds unknown raffle state")
	}
	s.state = snap.State
	s.players = append([]domain.Address(nil), snap.Players...)
	s.lastSettledAt = snap.LastSettledAt
	s.recentWinner = snap.RecentWinner
	s.pendingRequest = snap.PendingRequestID
	s.logger.Info("resumed raffle from snapshot",
		"state", s.state,
		"players", len(s.players),
		"pending_request_id", s.pendingRequest,
	)
	return nil
}

// Enter admits a participant into the current round. The same address may
// enter any number of times; each entry is a separate registry slot and
// improves its odds proportionally.
func (s *Service) Enter(ctx context.Context, player domain.Address, amount *big.Int) error {
	ctx, span := tracer.Start(ctx, "raffle.Enter")
	defer span.End()

	if player.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "player address is required")
	}
	if amount == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "entry amount is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateOpen {
		s.reject("not_open")
		return ErrNotOpen
	}
	if amount.Cmp(s.cfg.EntranceFee) < 0 {
		s.reject("insufficient_payment")
		return ErrInsufficientPayment
	}

	if err := s.ledger.Deposit(ctx, player, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "deposit entry amount")
	}
	s.players = append(s.players, player)
	s.persist(ctx)

	if s.metrics != nil {
		s.metrics.EntriesTotal.Inc()
		s.observePool(ctx)
	}
	s.emit(ctx, events.Event{
		Type:    events.TypeEntryRecorded,
		Player:  player,
		Amount:  amount.String(),
		Players: len(s.players),
	})
	s.logger.InfoContext(ctx, "entry recorded", "player", player, "players", len(s.players))
	return nil
}

// Check is the result of one upkeep eligibility evaluation. Eligible is
// the conjunction of the four conditions; the per-condition fields let
// keepers see which one failed.
type Check struct {
	Eligible        bool         `json:"eligible"`
	Open            bool         `json:"open"`
	IntervalElapsed bool         `json:"interval_elapsed"`
	HasPlayers      bool         `json:"has_players"`
	HasBalance      bool         `json:"has_balance"`
	Players         int          `json:"players"`
	Balance         *big.Int     `json:"balance"`
	State           models.State `json:"state"`
}

// CheckUpkeep evaluates settlement eligibility without side effects. Any
// observer may call it at any time.
func (s *Service) CheckUpkeep(ctx context.Context) (Check, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	check, err := s.checkLocked(ctx)
	if err != nil {
		return Check{}, err
	}
	if s.metrics != nil {
		s.metrics.UpkeepChecks.WithLabelValues(boolLabel(check.Eligible)).Inc()
	}
	return check, nil
}

func (s *Service) checkLocked(ctx context.Context) (Check, error) {
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return Check{}, dErrors.Wrap(err, dErrors.CodeInternal, "read pool balance")
	}
	check := Check{
		Open:            s.state == models.StateOpen,
		IntervalElapsed: s.now().Sub(s.lastSettledAt) > s.cfg.Interval,
		HasPlayers:      len(s.players) > 0,
		HasBalance:      balance.Sign() > 0,
		Players:         len(s.players),
		Balance:         balance,
		State:           s.state,
	}
	check.Eligible = check.Open && check.IntervalElapsed && check.HasPlayers && check.HasBalance
	return check, nil
}

// PerformUpkeep re-validates eligibility and, when it holds, issues a
// randomness request and moves the raffle to calculating. This is the only
// open-to-calculating transition. If the coordinator refuses the request
// the transition does not commit and the raffle stays open.
func (s *Service) PerformUpkeep(ctx context.Context) (domain.RequestID, error) {
	ctx, span := tracer.Start(ctx, "raffle.PerformUpkeep")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	check, err := s.checkLocked(ctx)
	if err != nil {
		return "", err
	}
	if !check.Eligible {
		return "", &UpkeepNotNeededError{
			Balance: check.Balance,
			Players: check.Players,
			State:   check.State,
		}
	}

	requestID, err := s.coordinator.RequestRandomWords(ctx, vrf.RandomWordsRequest{
		KeyHash:              s.cfg.KeyHash,
		SubscriptionID:       s.cfg.SubscriptionID,
		RequestConfirmations: models.RequestConfirmations,
		CallbackGasLimit:     s.cfg.CallbackGasLimit,
		NumWords:             models.NumWords,
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "request random words")
	}

	s.state = models.StateCalculating
	s.pendingRequest = requestID
	s.persist(ctx)

	if s.metrics != nil {
		s.metrics.SettlementsRequested.Inc()
	}
	s.emit(ctx, events.Event{
		Type:      events.TypeSettlementRequested,
		RequestID: requestID,
		Players:   len(s.players),
	})
	s.logger.InfoContext(ctx, "settlement requested", "request_id", requestID, "players", len(s.players))
	span.SetAttributes(attribute.String("request_id", requestID.String()))
	return requestID, nil
}

// FulfillRandomWords receives the oracle's second phase: it maps the first
// random word onto a registry index, pays the whole pool to that player,
// and reopens the raffle. The operation is all-or-nothing: a failed payout
// aborts it with the raffle still calculating, so a retry cannot double
// count.
//
// Correlation is by calculating state alone. A request id that differs
// from the one issued is logged and honored anyway; only one request can
// be outstanding because entering the calculating state blocks issuing
// another.
func (s *Service) FulfillRandomWords(ctx context.Context, requestID domain.RequestID, words []*big.Int) error {
	ctx, span := tracer.Start(ctx, "raffle.FulfillRandomWords")
	defer span.End()

	if len(words) == 0 || words[0] == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one random word is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateCalculating {
		return ErrNoPendingSettlement
	}
	if requestID != s.pendingRequest {
		s.logger.WarnContext(ctx, "fulfillment request id does not match issued request",
			"got", requestID,
			"issued", s.pendingRequest,
		)
	}
	if len(s.players) == 0 {
		// Unreachable: settlement is only requested with a non-empty
		// registry and the registry is frozen while calculating.
		return dErrors.New(dErrors.CodeInternal, "calculating with empty registry")
	}

	idx := new(big.Int).Mod(words[0], big.NewInt(int64(len(s.players))))
	winner := s.players[idx.Int64()]

	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "read pool balance")
	}
	if err := s.ledger.Payout(ctx, winner, balance); err != nil {
		if s.metrics != nil {
			s.metrics.SettlementFailures.Inc()
		}
		s.logger.ErrorContext(ctx, "winner payout failed, settlement aborted",
			"winner", winner,
			"amount", balance,
			"error", err,
		)
		return &TransferFailedError{Winner: winner, Amount: balance, Err: err}
	}

	players := len(s.players)
	s.recentWinner = winner
	s.players = nil
	s.state = models.StateOpen
	s.lastSettledAt = s.now()
	s.pendingRequest = ""
	s.persist(ctx)

	if s.metrics != nil {
		s.metrics.RoundsSettled.Inc()
		s.observePool(ctx)
	}
	s.emit(ctx, events.Event{
		Type:      events.TypeWinnerPicked,
		RequestID: requestID,
		Winner:    winner,
		Amount:    balance.String(),
		Players:   players,
	})
	s.logger.InfoContext(ctx, "winner picked", "winner", winner, "amount", balance, "players", players)
	return nil
}

// persist writes the snapshot through. Memory state is authoritative;
// persistence failures are logged and do not abort the committed
// mutation.
func (s *Service) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "read balance for snapshot", "error", err)
		balance = nil
	}
	snap := models.Snapshot{
		State:            s.state,
		Players:          append([]domain.Address(nil), s.players...),
		LastSettledAt:    s.lastSettledAt,
		RecentWinner:     s.recentWinner,
		PendingRequestID: s.pendingRequest,
		Balance:          balance,
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.logger.ErrorContext(ctx, "save raffle snapshot", "error", err)
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "emit lifecycle event", "type", event.Type, "error", err)
	}
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.EntriesRejected.WithLabelValues(reason).Inc()
	}
}

func (s *Service) observePool(ctx context.Context) {
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return
	}
	s.metrics.ObservePool(balance, len(s.players))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
