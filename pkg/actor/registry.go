package actor

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateActor = errors.New("duplicate actor name")
	ErrNoActors       = errors.New("no actors registered")
)

// Registry is the ordered collection of actors a game draws from.
// It is filled during startup and read-only once games are running.
type Registry struct {
	actors []*Actor
	byName map[string]*Actor
}

// NewRegistry creates a registry from the given actors.
func NewRegistry(actors ...*Actor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Actor, len(actors))}
	for _, a := range actors {
		if err := r.Add(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends an actor. Names must be unique.
func (r *Registry) Add(a *Actor) error {
	if a == nil {
		return errors.New("nil actor")
	}
	if _, exists := r.byName[a.name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateActor, a.name)
	}
	r.actors = append(r.actors, a)
	r.byName[a.name] = a
	return nil
}

// Get returns the actor with the given name.
func (r *Registry) Get(name string) (*Actor, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Len returns the number of actors.
func (r *Registry) Len() int { return len(r.actors) }

// Names returns actor names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.actors))
	for i, a := range r.actors {
		names[i] = a.name
	}
	return names
}

// Random picks an actor uniformly.
func (r *Registry) Random(rng Rand) (*Actor, error) {
	if len(r.actors) == 0 {
		return nil, ErrNoActors
	}
	return r.actors[rng.IntN(len(r.actors))], nil
}
