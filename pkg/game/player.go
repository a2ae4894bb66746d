package game

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
)

// maxPendingPrompts bounds unanswered prompts per player; the oldest is dropped first.
const maxPendingPrompts = 8

type pendingPrompt struct {
	id       string
	template *content.ChoiceTemplate
}

// Player is one participant of a Game. It owns its nation state exclusively.
type Player struct {
	id       string
	game     *Game
	joinedAt time.Time

	dead atomic.Bool

	mu      sync.Mutex
	state   *state.PlayerState
	pending []pendingPrompt
	removed bool
}

// ID returns the platform user id.
func (p *Player) ID() string { return p.id }

// JoinedAt returns when the player joined.
func (p *Player) JoinedAt() time.Time { return p.joinedAt }

// Stage returns the current stage of the owning game.
func (p *Player) Stage() content.Stage { return p.game.Stage() }

// State returns a copy of the player's nation state.
func (p *Player) State() *state.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// PendingPrompts returns the ids of unanswered prompts, oldest first.
func (p *Player) PendingPrompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(p.pending))
	for i, pp := range p.pending {
		ids[i] = pp.id
	}
	return ids
}

func (p *Player) lost(tracked []string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Negative(tracked)
}

func (p *Player) offer(id string, tpl *content.ChoiceTemplate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, pendingPrompt{id: id, template: tpl})
	if len(p.pending) > maxPendingPrompts {
		p.pending = slices.Delete(p.pending, 0, len(p.pending)-maxPendingPrompts)
	}
}

func (p *Player) withdraw(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = slices.DeleteFunc(p.pending, func(pp pendingPrompt) bool { return pp.id == id })
}

// resolve applies the consequence of label on prompt id. The prompt is consumed
// only when the label is valid.
func (p *Player) resolve(id, label string) (state.Consequence, []string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.removed {
		return nil, nil, ErrPlayerNotFound
	}
	idx := slices.IndexFunc(p.pending, func(pp pendingPrompt) bool { return pp.id == id })
	if idx < 0 {
		return nil, nil, ErrPromptNotFound
	}
	c, ok := p.pending[idx].template.Consequence(label)
	if !ok {
		return nil, nil, ErrChoiceNotFound
	}
	skipped, err := p.state.Apply(c)
	if err != nil {
		return nil, nil, err
	}
	p.pending = slices.Delete(p.pending, idx, idx+1)
	return c, skipped, nil
}

// markRemoved flags the player so no further messages are delivered.
func (p *Player) markRemoved() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = true
	p.pending = nil
}
