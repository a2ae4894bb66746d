package game

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/defcon/pkg/content"
)

var (
	ErrPlayerExists   = errors.New("player already in game")
	ErrPlayerNotFound = errors.New("player not in game")
	ErrGameNotFound   = errors.New("game not found")
	ErrGameRunning    = errors.New("game already running")
	ErrGameEnded      = errors.New("game has ended")
	ErrNoPlayers      = errors.New("game has no players")
	ErrPromptNotFound = errors.New("prompt not found or already answered")
	ErrChoiceNotFound = errors.New("choice not offered by prompt")

	// errPlayerRemoved is returned by send once the player left the game.
	errPlayerRemoved = errors.New("player removed")
)

// TickError is a contained failure of one player's tick.
type TickError struct {
	PlayerID string
	Stage    content.Stage
	Err      error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick player %s (stage %d): %v", e.PlayerID, e.Stage, e.Err)
}

func (e *TickError) Unwrap() error {
	return e.Err
}
