package queue

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Request is a player's answer to a choice prompt, waiting to be applied.
type Request struct {
	RequestID string    `json:"request_id"`
	GameID    uuid.UUID `json:"game_id"`
	PlayerID  string    `json:"player_id"`
	PromptID  string    `json:"prompt_id"`
	Label     string    `json:"label"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRequest stamps a request with a fresh id and the current time.
func NewRequest(gameID uuid.UUID, playerID, promptID, label string) *Request {
	return &Request{
		RequestID:  uuid.NewString(),
		GameID:     gameID,
		PlayerID:   playerID,
		PromptID:   promptID,
		Label:      label,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Validate checks the fields a worker needs.
func (r *Request) Validate() error {
	var errs []error
	if r.GameID == uuid.Nil {
		errs = append(errs, errors.New("game_id is required"))
	}
	if r.PlayerID == "" {
		errs = append(errs, errors.New("player_id is required"))
	}
	if r.PromptID == "" {
		errs = append(errs, errors.New("prompt_id is required"))
	}
	if r.Label == "" {
		errs = append(errs, errors.New("label is required"))
	}
	return errors.Join(errs...)
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
