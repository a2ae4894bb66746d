package loader

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/defcon/pkg/actor"
)

// LoadError is a content unit that failed to describe itself.
type LoadError struct {
	Unit string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("content unit %s: %v", e.Unit, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load describes every unit and collects the actors. A failing unit is logged
// and skipped; loading never stops early. The returned registry may be empty.
func Load(log *slog.Logger, units ...NamedUnit) (*actor.Registry, []error) {
	reg, _ := actor.NewRegistry()
	var failures []error

	for _, nu := range units {
		a, err := describe(nu)
		if err == nil {
			err = reg.Add(a)
		}
		if err != nil {
			lerr := &LoadError{Unit: nu.Name, Err: err}
			log.Error("Failed to load content unit", "unit", nu.Name, "error", err)
			failures = append(failures, lerr)
			continue
		}
		log.Debug("Loaded content unit", "unit", nu.Name, "actor", a.Name())
	}

	log.Info("Content loaded", "actors", reg.Len(), "failed", len(failures))
	return reg, failures
}

// describe calls the unit, turning a panic into an error.
func describe(nu NamedUnit) (a *actor.Actor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	a, err = nu.Unit.Describe()
	if err == nil && a == nil {
		err = fmt.Errorf("unit returned no actor")
	}
	return a, err
}
