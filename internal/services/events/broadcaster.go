package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/pkg/game"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypePlayerMessage  EventType = "player.message"
	EventTypeGameStatus     EventType = "game.status"
	EventTypeChoiceRejected EventType = "choice.rejected"
)

// Event is the JSON payload published on a channel.
type Event struct {
	Type     EventType      `json:"type"`
	GameID   string         `json:"game_id"`
	PlayerID string         `json:"player_id,omitempty"`
	Message  *game.Message  `json:"message,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes game output to Redis Pub/Sub, where the platform
// bridge relays it to each player's channel.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ game.Delivery = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PlayerChannel is the channel carrying one player's messages.
func PlayerChannel(gameID uuid.UUID, playerID string) string {
	return fmt.Sprintf("game-events:%s:%s", gameID.String(), playerID)
}

// GameChannel is the channel carrying game-wide status updates.
func GameChannel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// Send implements game.Delivery.
func (b *Broadcaster) Send(ctx context.Context, gameID uuid.UUID, playerID string, msg game.Message) error {
	return b.publish(ctx, PlayerChannel(gameID, playerID), Event{
		Type:     EventTypePlayerMessage,
		GameID:   gameID.String(),
		PlayerID: playerID,
		Message:  &msg,
	})
}

// PublishGameStatus publishes a game.status event with the game's current view.
func (b *Broadcaster) PublishGameStatus(ctx context.Context, snap game.Snapshot) error {
	return b.publish(ctx, GameChannel(snap.ID), Event{
		Type:   EventTypeGameStatus,
		GameID: snap.ID.String(),
		Data: map[string]any{
			"status":  snap.Status,
			"stage":   snap.Stage,
			"players": len(snap.Players),
		},
	})
}

// PublishChoiceRejected tells a player their choice could not be applied.
func (b *Broadcaster) PublishChoiceRejected(ctx context.Context, gameID uuid.UUID, playerID, requestID, reason string) error {
	return b.publish(ctx, PlayerChannel(gameID, playerID), Event{
		Type:     EventTypeChoiceRejected,
		GameID:   gameID.String(),
		PlayerID: playerID,
		Data: map[string]any{
			"request_id": requestID,
			"reason":     reason,
		},
	})
}

// Subscribe listens on one player's channel and on the game's status channel.
func (b *Broadcaster) Subscribe(ctx context.Context, gameID uuid.UUID, playerID string) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, PlayerChannel(gameID, playerID), GameChannel(gameID))
}

func (b *Broadcaster) publish(ctx context.Context, channel string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := b.redisClient.Publish(ctx, channel, data).Result()
	if err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"receivers", receivers,
	)
	return nil
}

// Decode parses a published payload.
func Decode(payload string) (*Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &e, nil
}
