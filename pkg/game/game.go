// Package game runs one session of the nation game: it owns the players,
// advances the stage over wall-clock time and schedules narrative ticks.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/pkg/actor"
	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
)

// Status is the lifecycle state of a Game.
type Status int32

const (
	StatusCreated Status = iota
	StatusRunning
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Game is a single session. Create it with New, add players, then call Run.
type Game struct {
	id       uuid.UUID
	actors   *actor.Registry
	delivery Delivery
	log      *slog.Logger
	cfg      settings
	rng      *lockedRand
	duration float64

	stage  atomic.Int32
	status atomic.Int32

	mu        sync.RWMutex
	players   map[string]*Player
	startedAt time.Time
}

// New creates a game in the Created state at the first stage.
func New(id uuid.UUID, actors *actor.Registry, delivery Delivery, log *slog.Logger, opts ...Option) (*Game, error) {
	if actors == nil || actors.Len() == 0 {
		return nil, actor.ErrNoActors
	}
	if delivery == nil {
		return nil, errors.New("delivery is required")
	}
	if log == nil {
		log = slog.Default()
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid game options: %w", err)
	}

	g := &Game{
		id:       id,
		actors:   actors,
		delivery: delivery,
		cfg:      cfg,
		rng:      newLockedRand(cfg.seed, cfg.seeded),
		players:  make(map[string]*Player),
	}
	g.duration = cfg.duration
	if !cfg.seededDuration() {
		g.duration = g.rng.uniform(MinDuration, MaxDuration)
	}
	g.log = log.With("game_id", id.String())
	g.stage.Store(int32(content.StageOpening))
	g.status.Store(int32(StatusCreated))
	return g, nil
}

// ID returns the game id.
func (g *Game) ID() uuid.UUID { return g.id }

// Stage returns the current stage. Safe for concurrent use.
func (g *Game) Stage() content.Stage { return content.Stage(g.stage.Load()) }

// Status returns the lifecycle state.
func (g *Game) Status() Status { return Status(g.status.Load()) }

// Duration returns the total game length in duration units.
func (g *Game) Duration() float64 { return g.duration }

// Thresholds returns the cumulative stage thresholds.
func (g *Game) Thresholds() []float64 { return slices.Clone(g.cfg.thresholds) }

// AddPlayer registers a new player with a freshly rolled nation.
func (g *Game) AddPlayer(id string) (*Player, error) {
	if id == "" {
		return nil, errors.New("player id is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	// end publishes StatusEnded under g.mu, so no join slips in after it.
	if g.Status() == StatusEnded {
		return nil, ErrGameEnded
	}
	if _, exists := g.players[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrPlayerExists, id)
	}

	p := &Player{
		id:       id,
		game:     g,
		joinedAt: g.cfg.clock.Now(),
		state:    g.register(),
	}
	g.players[id] = p

	g.log.Info("Player joined",
		"player_id", id,
		"nation", p.state.NationName,
		"players", len(g.players))
	return p, nil
}

// register rolls a starting nation. Caller holds g.mu.
func (g *Game) register() *state.PlayerState {
	attrs := make(map[string]int, len(g.cfg.starting))
	// sorted so a seeded game rolls the same value for the same attribute
	for _, attr := range slices.Sorted(maps.Keys(g.cfg.starting)) {
		r := g.cfg.starting[attr]
		attrs[attr] = r.Min + g.rng.IntN(r.Max-r.Min+1)
	}

	taken := make(map[string]bool, len(g.players))
	for _, p := range g.players {
		taken[p.state.NationName] = true
	}
	free := slices.DeleteFunc(slices.Clone(g.cfg.nations), func(n string) bool { return taken[n] })

	var name string
	switch {
	case len(free) > 0:
		name = free[g.rng.IntN(len(free))]
	case len(g.cfg.nations) > 0:
		name = fmt.Sprintf("%s %d", g.cfg.nations[g.rng.IntN(len(g.cfg.nations))], len(g.players)+1)
	default:
		name = fmt.Sprintf("Nation %d", len(g.players)+1)
	}
	return state.New(name, attrs)
}

// end marks the game over.
func (g *Game) end() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status.Store(int32(StatusEnded))
}

// RemovePlayer deletes a player. It is safe to call while ticks are running;
// the player receives no further messages.
func (g *Game) RemovePlayer(id string) error {
	g.mu.Lock()
	p, ok := g.players[id]
	if ok {
		delete(g.players, id)
	}
	remaining := len(g.players)
	g.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	p.markRemoved()

	g.log.Info("Player removed", "player_id", id, "players", remaining)
	return nil
}

// Player returns the player with the given id.
func (g *Game) Player(id string) (*Player, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.players[id]
	return p, ok
}

// PlayerCount returns the number of players currently in the game.
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// snapshot returns the current players sorted by id.
func (g *Game) snapshot() []*Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(g.players))
	out := make([]*Player, len(ids))
	for i, id := range ids {
		out[i] = g.players[id]
	}
	return out
}

// Choose applies the consequence of the chosen label for a pending prompt.
func (g *Game) Choose(ctx context.Context, playerID, promptID, label string) error {
	p, ok := g.Player(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}

	c, skipped, err := p.resolve(promptID, label)
	if err != nil {
		g.log.Warn("Choice rejected",
			"player_id", playerID,
			"prompt_id", promptID,
			"label", label,
			"error", err)
		return err
	}
	if len(skipped) > 0 {
		g.log.Warn("Consequence referenced unknown attributes",
			"player_id", playerID,
			"prompt_id", promptID,
			"skipped", skipped)
	}

	g.log.Info("Choice applied",
		"player_id", playerID,
		"prompt_id", promptID,
		"label", label,
		"effects", len(c),
		"stage", int(g.Stage()))
	return nil
}

// elapsed returns the time since Run started, in duration units.
func (g *Game) elapsed() float64 {
	g.mu.RLock()
	started := g.startedAt
	g.mu.RUnlock()
	if started.IsZero() {
		return 0
	}
	return float64(g.cfg.clock.Now().Sub(started)) / float64(g.cfg.durationUnit)
}

// PlayerView is a read-only view of a player.
type PlayerView struct {
	ID       string             `json:"id"`
	State    *state.PlayerState `json:"state"`
	Pending  []string           `json:"pending_prompts,omitempty"`
	JoinedAt time.Time          `json:"joined_at"`
}

// Snapshot is a read-only view of a game.
type Snapshot struct {
	ID       uuid.UUID    `json:"id"`
	Status   string       `json:"status"`
	Stage    int          `json:"stage"`
	Elapsed  float64      `json:"elapsed"`
	Duration float64      `json:"duration"`
	Players  []PlayerView `json:"players"`
}

// Snapshot returns a consistent-enough view for display. Player states are copies.
func (g *Game) Snapshot() Snapshot {
	players := g.snapshot()
	views := make([]PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, PlayerView{
			ID:       p.id,
			State:    p.State(),
			Pending:  p.PendingPrompts(),
			JoinedAt: p.joinedAt,
		})
	}
	return Snapshot{
		ID:       g.id,
		Status:   g.Status().String(),
		Stage:    int(g.Stage()),
		Elapsed:  g.elapsed(),
		Duration: g.duration,
		Players:  views,
	}
}
