// Package actor holds the named content sources and their stage-gated,
// weighted template pools.
package actor

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
)

var (
	// ErrEmptyPool means no template with positive weight is eligible for the stage.
	ErrEmptyPool = errors.New("no eligible templates")
	// ErrUnknownStage means the stage is outside 1..content.MaxStage.
	ErrUnknownStage = errors.New("unknown stage")
)

// Rand is the randomness an actor needs. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Actor is a named content source with one weighted pool per stage.
// Pools are computed once in New and never change afterwards.
type Actor struct {
	name    string
	picture string
	pools   map[content.Stage]pool
}

// New builds an actor, flattening the groups into per-stage pools while
// keeping declaration order.
func New(name, picture string, groups ...content.StageGroup) (*Actor, error) {
	if name == "" {
		return nil, errors.New("actor name is required")
	}

	var errs []error
	for gi, g := range groups {
		for _, stage := range g.Stages() {
			if !stage.Valid() {
				errs = append(errs, fmt.Errorf("group %d: %w %d", gi, ErrUnknownStage, int(stage)))
			}
		}
		for ti, tpl := range g.Templates() {
			if tpl == nil {
				errs = append(errs, fmt.Errorf("group %d template %d: nil template", gi, ti))
				continue
			}
			if err := content.Validate(tpl); err != nil {
				errs = append(errs, fmt.Errorf("group %d template %d: %w", gi, ti, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("actor %q: %w", name, err)
	}

	a := &Actor{
		name:    name,
		picture: picture,
		pools:   make(map[content.Stage]pool, content.MaxStage),
	}
	for _, stage := range content.Stages() {
		var p pool
		for _, g := range groups {
			if !g.Includes(stage) {
				continue
			}
			for _, tpl := range g.Templates() {
				p.add(tpl)
			}
		}
		a.pools[stage] = p
	}
	return a, nil
}

// Name returns the actor's display name.
func (a *Actor) Name() string { return a.name }

// Picture returns the actor's picture URL, which may be empty.
func (a *Actor) Picture() string { return a.picture }

// Pool returns the templates eligible for the stage, in declaration order.
func (a *Actor) Pool(stage content.Stage) []content.Content {
	p, ok := a.pools[stage]
	if !ok {
		return nil
	}
	return p.list()
}

// Select draws a template for the stage, weighted by template weight.
func (a *Actor) Select(rng Rand, stage content.Stage) (content.Content, error) {
	return a.draw(rng, stage, nil)
}

// SelectFor is Select restricted to templates available for st.
func (a *Actor) SelectFor(rng Rand, stage content.Stage, st *state.PlayerState) (content.Content, error) {
	return a.draw(rng, stage, func(c content.Content) bool {
		return c.IsAvailable(st)
	})
}

func (a *Actor) draw(rng Rand, stage content.Stage, keep func(content.Content) bool) (content.Content, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, stage)
	}
	p := a.pools[stage]
	c, ok := p.draw(rng, keep)
	if !ok {
		return nil, fmt.Errorf("actor %q, stage %s: %w", a.name, stage, ErrEmptyPool)
	}
	return c, nil
}
