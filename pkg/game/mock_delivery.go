package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockDelivery records every message it is asked to send. SendFunc, when set,
// decides the returned error.
type MockDelivery struct {
	mu       sync.Mutex
	messages map[string][]Message

	SendFunc func(ctx context.Context, gameID uuid.UUID, playerID string, msg Message) error
}

var _ Delivery = (*MockDelivery)(nil)

func NewMockDelivery() *MockDelivery {
	return &MockDelivery{messages: make(map[string][]Message)}
}

func (m *MockDelivery) Send(ctx context.Context, gameID uuid.UUID, playerID string, msg Message) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, gameID, playerID, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[playerID] = append(m.messages[playerID], msg)
	return nil
}

// Messages returns a copy of what was delivered to the player.
func (m *MockDelivery) Messages(playerID string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages[playerID]))
	copy(out, m.messages[playerID])
	return out
}

// Count returns how many messages of kind the player received.
func (m *MockDelivery) Count(playerID string, kind MessageKind) int {
	n := 0
	for _, msg := range m.Messages(playerID) {
		if msg.Kind == kind {
			n++
		}
	}
	return n
}

// Last returns the most recent message for the player.
func (m *MockDelivery) Last(playerID string) (Message, bool) {
	msgs := m.Messages(playerID)
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}
