package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/pkg/game"
	queuePkg "github.com/jwebster45206/defcon/pkg/queue"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Games is the part of game.Manager the HTTP surface drives.
type Games interface {
	Create(opts ...game.Option) (*game.Game, error)
	Get(id uuid.UUID) (*game.Game, error)
	Start(id uuid.UUID) error
	Stop(ctx context.Context, id uuid.UUID) error
}

// ChoiceQueue accepts choice requests for asynchronous processing.
type ChoiceQueue interface {
	Enqueue(ctx context.Context, req *queuePkg.Request) error
}

// StatusPublisher announces game lifecycle changes. Optional.
type StatusPublisher interface {
	PublishGameStatus(ctx context.Context, snap game.Snapshot) error
}

type GameHandler struct {
	games   Games
	choices ChoiceQueue
	status  StatusPublisher
	logger  *slog.Logger
}

func NewGameHandler(games Games, choices ChoiceQueue, status StatusPublisher, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		games:   games,
		choices: choices,
		status:  status,
		logger:  logger,
	}
}

// Register mounts the game routes on mux.
func (h *GameHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/games", h.handleCreate)
	mux.HandleFunc("GET /v1/games/{id}", h.handleRead)
	mux.HandleFunc("POST /v1/games/{id}/start", h.handleStart)
	mux.HandleFunc("POST /v1/games/{id}/stop", h.handleStop)
	mux.HandleFunc("POST /v1/games/{id}/players", h.handleJoin)
	mux.HandleFunc("DELETE /v1/games/{id}/players/{pid}", h.handleLeave)
	mux.HandleFunc("POST /v1/games/{id}/players/{pid}/choices", h.handleChoice)
}

// CreateGameRequest is the optional body of POST /v1/games.
type CreateGameRequest struct {
	Duration *float64 `json:"duration,omitempty"`
	Seed     *uint64  `json:"seed,omitempty"`
}

type JoinRequest struct {
	PlayerID string `json:"player_id"`
}

type ChoiceRequest struct {
	PromptID string `json:"prompt_id"`
	Label    string `json:"label"`
}

type ChoiceAccepted struct {
	RequestID string `json:"request_id"`
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("Invalid JSON in create game request", "error", err)
			h.writeError(w, http.StatusBadRequest, "Invalid JSON format")
			return
		}
	}

	var opts []game.Option
	if req.Duration != nil {
		opts = append(opts, game.WithDuration(*req.Duration))
	}
	if req.Seed != nil {
		opts = append(opts, game.WithSeed(*req.Seed))
	}

	g, err := h.games.Create(opts...)
	if err != nil {
		h.logger.Warn("Failed to create game", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, g.Snapshot())
}

func (h *GameHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, g.Snapshot())
}

func (h *GameHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.games.Start(g.ID()); err != nil {
		h.writeGameError(w, g.ID(), err)
		return
	}
	snap := g.Snapshot()
	h.publish(r.Context(), snap)
	h.writeJSON(w, http.StatusAccepted, snap)
}

func (h *GameHandler) handleStop(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.games.Stop(r.Context(), g.ID()); err != nil {
		h.writeGameError(w, g.ID(), err)
		return
	}
	snap := g.Snapshot()
	h.publish(r.Context(), snap)
	h.writeJSON(w, http.StatusOK, snap)
}

func (h *GameHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in join request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if req.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	p, err := g.AddPlayer(req.PlayerID)
	if err != nil {
		h.writeGameError(w, g.ID(), err)
		return
	}
	h.writeJSON(w, http.StatusCreated, game.PlayerView{
		ID:       p.ID(),
		State:    p.State(),
		JoinedAt: p.JoinedAt(),
	})
}

func (h *GameHandler) handleLeave(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := g.RemovePlayer(r.PathValue("pid")); err != nil {
		h.writeGameError(w, g.ID(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChoice queues the choice; the worker applies it.
func (h *GameHandler) handleChoice(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	playerID := r.PathValue("pid")
	if _, ok := g.Player(playerID); !ok {
		h.writeGameError(w, g.ID(), game.ErrPlayerNotFound)
		return
	}

	var body ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn("Invalid JSON in choice request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	req := queuePkg.NewRequest(g.ID(), playerID, body.PromptID, body.Label)
	if err := req.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.choices.Enqueue(r.Context(), req); err != nil {
		h.logger.Error("Failed to enqueue choice",
			"game_id", g.ID().String(),
			"player_id", playerID,
			"error", err)
		h.writeError(w, http.StatusServiceUnavailable, "Choice could not be queued")
		return
	}
	h.writeJSON(w, http.StatusAccepted, ChoiceAccepted{RequestID: req.RequestID})
}

func (h *GameHandler) lookup(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", r.PathValue("id"), "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid game ID format")
		return nil, false
	}
	g, err := h.games.Get(id)
	if err != nil {
		h.writeGameError(w, id, err)
		return nil, false
	}
	return g, true
}

func (h *GameHandler) publish(ctx context.Context, snap game.Snapshot) {
	if h.status == nil {
		return
	}
	if err := h.status.PublishGameStatus(ctx, snap); err != nil {
		h.logger.Warn("Failed to publish game status", "game_id", snap.ID.String(), "error", err)
	}
}

func (h *GameHandler) writeGameError(w http.ResponseWriter, gameID uuid.UUID, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Game request failed", "game_id", gameID.String(), "error", err)
		h.writeError(w, status, "Internal server error")
		return
	}
	h.logger.Debug("Game request rejected", "game_id", gameID.String(), "error", err)
	h.writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound), errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrPlayerExists),
		errors.Is(err, game.ErrGameRunning),
		errors.Is(err, game.ErrGameEnded),
		errors.Is(err, game.ErrNoPlayers):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *GameHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *GameHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}
