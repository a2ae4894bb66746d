package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/internal/services/events"
	"github.com/redis/go-redis/v9"
)

const keepaliveInterval = 30 * time.Second

// Subscriber opens a pub/sub subscription for one player of a game.
type Subscriber interface {
	Subscribe(ctx context.Context, gameID uuid.UUID, playerID string) *redis.PubSub
}

// EventsHandler streams a player's delivered messages and the game's status
// changes as Server-Sent Events.
type EventsHandler struct {
	subscriber Subscriber
	logger     *slog.Logger
}

func NewEventsHandler(subscriber Subscriber, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Register mounts the stream route on mux.
func (h *EventsHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /v1/games/{id}/players/{pid}/events", h)
}

// GET /v1/games/{id}/players/{pid}/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid game ID format"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	playerID := r.PathValue("pid")
	log := h.logger.With("game_id", gameID.String(), "player_id", playerID)

	pubsub := h.subscriber.Subscribe(r.Context(), gameID, playerID)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Error("Failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(r.Context()); err != nil {
		log.Error("Failed to subscribe to game events", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Event stream unavailable"}); err != nil {
			log.Error("Failed to encode error response", "error", err)
		}
		return
	}

	log.Info("SSE connection established", "remote_addr", r.RemoteAddr)

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("Write deadline not adjustable", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.sendSSE(w, "connected", map[string]any{
		"game_id":   gameID.String(),
		"player_id": playerID,
	})

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()
	msgChan := pubsub.Channel()

	for {
		select {
		case <-r.Context().Done():
			log.Info("SSE client disconnected")
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			event, err := events.Decode(msg.Payload)
			if err != nil {
				log.Error("Failed to decode event", "error", err, "payload", msg.Payload)
				continue
			}
			h.sendSSE(w, string(event.Type), event)

		case <-keepalive.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				log.Error("Failed to write keepalive", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
