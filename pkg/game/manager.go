package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/pkg/actor"
)

type managedGame struct {
	game   *Game
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns every live game of the process and the goroutines running them.
type Manager struct {
	actors   *actor.Registry
	delivery Delivery
	log      *slog.Logger
	defaults []Option

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	games map[uuid.UUID]*managedGame
}

// NewManager creates a manager. defaults are applied to every created game
// before the per-game options.
func NewManager(actors *actor.Registry, delivery Delivery, log *slog.Logger, defaults ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		actors:   actors,
		delivery: delivery,
		log:      log,
		defaults: defaults,
		ctx:      ctx,
		cancel:   cancel,
		games:    make(map[uuid.UUID]*managedGame),
	}
}

// Create makes a new game in the Created state.
func (m *Manager) Create(opts ...Option) (*Game, error) {
	all := append(slices.Clone(m.defaults), opts...)
	g, err := New(uuid.New(), m.actors, m.delivery, m.log, all...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.games[g.id] = &managedGame{game: g}
	count := len(m.games)
	m.mu.Unlock()

	m.log.Info("Game created", "game_id", g.id.String(), "games", count)
	return g, nil
}

// Get returns a live game.
func (m *Manager) Get(id uuid.UUID) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mg, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return mg.game, nil
}

// List returns the ids of live games.
func (m *Manager) List() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids
}

// Start runs the game loop in the background. The game is dropped from the
// manager when its loop returns.
func (m *Manager) Start(id uuid.UUID) error {
	m.mu.Lock()
	mg, ok := m.games[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if mg.done != nil {
		m.mu.Unlock()
		return ErrGameRunning
	}
	if mg.game.PlayerCount() == 0 {
		m.mu.Unlock()
		return ErrNoPlayers
	}
	ctx, cancel := context.WithCancel(m.ctx)
	mg.cancel = cancel
	mg.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(mg.done)
		defer cancel()
		if err := mg.game.Run(ctx); err != nil {
			m.log.Error("Game loop exited with error", "game_id", id.String(), "error", err)
		}
		m.mu.Lock()
		delete(m.games, id)
		m.mu.Unlock()
	}()
	return nil
}

// Stop cancels a game and waits for its loop to return. A game that was never
// started is simply discarded.
func (m *Manager) Stop(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	mg, ok := m.games[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if mg.done == nil {
		delete(m.games, id)
		mg.game.end()
		m.mu.Unlock()
		return nil
	}
	mg.cancel()
	done := mg.done
	m.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Choose routes a choice to the right game.
func (m *Manager) Choose(ctx context.Context, gameID uuid.UUID, playerID, promptID, label string) error {
	g, err := m.Get(gameID)
	if err != nil {
		return err
	}
	return g.Choose(ctx, playerID, promptID, label)
}

// Shutdown stops every game and waits for the loops to return.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	m.mu.Lock()
	var waits []chan struct{}
	for id, mg := range m.games {
		if mg.done == nil {
			delete(m.games, id)
			continue
		}
		waits = append(waits, mg.done)
	}
	m.mu.Unlock()

	for _, done := range waits {
		select {
		case <-done:
		case <-ctx.Done():
			return errors.Join(errors.New("shutdown timed out"), ctx.Err())
		}
	}
	return nil
}
