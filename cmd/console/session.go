package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/pkg/game"
)

// inboxSize is how many undelivered messages the UI may lag behind the game.
const inboxSize = 32

// channelDelivery hands messages for one local player to the UI.
type channelDelivery struct {
	playerID string
	inbox    chan game.Message
}

func newChannelDelivery(playerID string) *channelDelivery {
	return &channelDelivery{
		playerID: playerID,
		inbox:    make(chan game.Message, inboxSize),
	}
}

func (d *channelDelivery) Send(ctx context.Context, gameID uuid.UUID, playerID string, msg game.Message) error {
	if playerID != d.playerID {
		return fmt.Errorf("unknown local player %q", playerID)
	}
	select {
	case d.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type incomingMsg struct {
	message game.Message
}

type gameOverMsg struct {
	err error
}

type choiceResultMsg struct {
	promptID string
	label    string
	err      error
}

type refreshMsg struct{}

// waitForMessage blocks until the game delivers the next message.
func waitForMessage(inbox <-chan game.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-inbox
		if !ok {
			return nil
		}
		return incomingMsg{message: msg}
	}
}

// waitForEnd reports when the game loop returns.
func waitForEnd(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return gameOverMsg{err: <-done}
	}
}
