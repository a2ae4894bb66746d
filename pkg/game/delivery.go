package game

import (
	"context"

	"github.com/google/uuid"
)

// MessageKind classifies a delivered message.
type MessageKind string

const (
	MessageEvent  MessageKind = "event"  // plain narrative
	MessageChoice MessageKind = "choice" // narrative awaiting a choice
	MessageNotice MessageKind = "notice" // system notification
	MessageError  MessageKind = "error"  // generic failure notice
)

// Message is what a player's channel receives.
type Message struct {
	Kind     MessageKind `json:"kind"`
	Title    string      `json:"title"`
	Body     string      `json:"body"`
	Actor    string      `json:"actor,omitempty"`
	Picture  string      `json:"picture,omitempty"`
	Stage    int         `json:"stage,omitempty"`
	PromptID string      `json:"prompt_id,omitempty"`
	Choices  []string    `json:"choices,omitempty"`
}

// Delivery sends messages to a player's channel on the hosting platform.
type Delivery interface {
	Send(ctx context.Context, gameID uuid.UUID, playerID string, msg Message) error
}

// DeliveryFunc adapts a function to Delivery.
type DeliveryFunc func(ctx context.Context, gameID uuid.UUID, playerID string, msg Message) error

func (f DeliveryFunc) Send(ctx context.Context, gameID uuid.UUID, playerID string, msg Message) error {
	return f(ctx, gameID, playerID, msg)
}
