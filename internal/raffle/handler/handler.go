// Package handler is the thin HTTP layer over the raffle service. It
// delegates to the state machine without embedding business logic so
// transport concerns remain isolated.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"raffled/internal/platform/middleware"
	"raffled/internal/raffle"
	"raffled/internal/token"
	"raffled/pkg/domain"
	dErrors "raffled/pkg/domain-errors"
)

// Handler handles the raffle endpoints.
type Handler struct {
	logger       *slog.Logger
	raffle       *raffle.Service
	jwtValidator middleware.JWTValidator
	apiKeyHash   string
}

// Option configures a Handler.
type Option func(*Handler)

// WithMachineAPIKey enables the shared-secret alternative to JWT auth on
// the machine endpoints. hash is a bcrypt hash of the secret.
func WithMachineAPIKey(hash string) Option {
	return func(h *Handler) {
		h.apiKeyHash = hash
	}
}

// New creates a raffle Handler.
func New(svc *raffle.Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, opts ...Option) *Handler {
	h := &Handler{
		logger:       logger,
		raffle:       svc,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the raffle routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))

		r.Get("/healthz", h.handleHealth)
		r.Get("/raffle", h.handleGetRaffle)
		r.Get("/raffle/players/{index}", h.handleGetPlayer)
		r.Get("/raffle/winner", h.handleGetWinner)
		r.Get("/upkeep", h.handleCheckUpkeep)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Post("/raffle/entries", h.handleEnter)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Use(middleware.RequireMachineAuth(h.jwtValidator, h.apiKeyHash, h.logger, token.RoleKeeper))
			r.Post("/upkeep", h.handlePerformUpkeep)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Use(middleware.RequireMachineAuth(h.jwtValidator, h.apiKeyHash, h.logger, token.RoleCoordinator))
			r.Post("/vrf/fulfillments", h.handleFulfillment)
		})
	})
}

type raffleResponse struct {
	State                string    `json:"state"`
	EntranceFee          string    `json:"entrance_fee"`
	Interval             string    `json:"interval"`
	Players              int       `json:"players"`
	Balance              string    `json:"balance"`
	RecentWinner         string    `json:"recent_winner,omitempty"`
	PendingRequestID     string    `json:"pending_request_id,omitempty"`
	LastSettledAt        time.Time `json:"last_settled_at"`
	NumWords             uint32    `json:"num_words"`
	RequestConfirmations uint16    `json:"request_confirmations"`
}

func (h *Handler) handleGetRaffle(w http.ResponseWriter, r *http.Request) {
	snap, err := h.raffle.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, raffleResponse{
		State:                snap.State.String(),
		EntranceFee:          h.raffle.EntranceFee().String(),
		Interval:             h.raffle.Interval().String(),
		Players:              len(snap.Players),
		Balance:              snap.Balance.String(),
		RecentWinner:         snap.RecentWinner.String(),
		PendingRequestID:     snap.PendingRequestID.String(),
		LastSettledAt:        snap.LastSettledAt,
		NumWords:             h.raffle.NumWords(),
		RequestConfirmations: h.raffle.RequestConfirmations(),
	})
}

type enterRequest struct {
	Player string `json:"player"`
	Amount string `json:"amount"`
}

type enterResponse struct {
	Player  string `json:"player"`
	Players int    `json:"players"`
}

func (h *Handler) handleEnter(w http.ResponseWriter, r *http.Request) {
	var req enterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "invalid JSON body"))
		return
	}

	player, err := domain.ParseAddress(req.Player)
	if err != nil {
		h.writeError(w, r, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid player address"))
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "amount must be a base-10 integer"))
		return
	}

	if err := h.raffle.Enter(r.Context(), player, amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, enterResponse{
		Player:  player.String(),
		Players: h.raffle.NumPlayers(),
	})
}

func (h *Handler) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "index must be an integer"))
		return
	}
	player, err := h.raffle.Player(index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":  index,
		"player": player.String(),
	})
}

func (h *Handler) handleGetWinner(w http.ResponseWriter, r *http.Request) {
	winner := h.raffle.RecentWinner()
	resp := map[string]any{"winner": nil}
	if !winner.IsZero() {
		resp["winner"] = winner.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCheckUpkeep(w http.ResponseWriter, r *http.Request) {
	check, err := h.raffle.CheckUpkeep(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *Handler) handlePerformUpkeep(w http.ResponseWriter, r *http.Request) {
	requestID, err := h.raffle.PerformUpkeep(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"request_id": requestID.String(),
	})
}

type fulfillmentRequest struct {
	RequestID   string   `json:"request_id"`
	RandomWords []string `json:"random_words"`
}

func (h *Handler) handleFulfillment(w http.ResponseWriter, r *http.Request) {
	var req fulfillmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "invalid JSON body"))
		return
	}

	words := make([]*big.Int, 0, len(req.RandomWords))
	for _, raw := range req.RandomWords {
		w256, ok := new(big.Int).SetString(raw, 10)
		if !ok || w256.Sign() < 0 {
			h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "random words must be non-negative base-10 integers"))
			return
		}
		words = append(words, w256)
	}

	if err := h.raffle.FulfillRandomWords(r.Context(), domain.RequestID(req.RequestID), words); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"winner": h.raffle.RecentWinner().String(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Balance string `json:"balance,omitempty"`
	Players *int   `json:"players,omitempty"`
	State   string `json:"state,omitempty"`
}

// writeError centralizes domain error translation to HTTP responses so the
// JSON error envelope stays consistent. UpkeepNotNeeded keeps its
// diagnostic triple in the body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code), Message: errMessage(err)}

	var notNeeded *raffle.UpkeepNotNeededError
	if errors.As(err, &notNeeded) {
		players := notNeeded.Players
		resp.Error = "upkeep_not_needed"
		resp.Balance = notNeeded.Balance.String()
		resp.Players = &players
		resp.State = notNeeded.State.String()
	}

	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		// Do not leak internals to callers.
		resp.Message = ""
	}
	writeJSON(w, status, resp)
}

func errMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
