package state

import (
	"errors"
	"fmt"
)

// EffectKind identifies how an Effect mutates an attribute.
type EffectKind string

const (
	// EffectSet overwrites the attribute with Value.
	EffectSet EffectKind = "set"
	// EffectAdd adds Value (possibly negative) to the attribute.
	EffectAdd EffectKind = "add"
)

var ErrUnknownEffect = errors.New("unknown effect kind")

// Effect is a single attribute mutation.
type Effect struct {
	Kind      EffectKind `json:"kind" yaml:"kind"`
	Attribute string     `json:"attribute" yaml:"attribute"`
	Value     int        `json:"value" yaml:"value"`
}

// Set builds an overwrite effect.
func Set(attr string, value int) Effect {
	return Effect{Kind: EffectSet, Attribute: attr, Value: value}
}

// Add builds a delta effect.
func Add(attr string, delta int) Effect {
	return Effect{Kind: EffectAdd, Attribute: attr, Value: delta}
}

// Validate checks the effect kind and that the attribute is one of known (when known is non-empty).
func (e Effect) Validate(known []string) error {
	switch e.Kind {
	case EffectSet, EffectAdd:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEffect, e.Kind)
	}
	if e.Attribute == "" {
		return errors.New("effect attribute is required")
	}
	if len(known) == 0 {
		return nil
	}
	for _, k := range known {
		if k == e.Attribute {
			return nil
		}
	}
	return fmt.Errorf("effect targets unknown attribute %q", e.Attribute)
}

func (e Effect) String() string {
	if e.Kind == EffectAdd {
		return fmt.Sprintf("%s %+d", e.Attribute, e.Value)
	}
	return fmt.Sprintf("%s = %d", e.Attribute, e.Value)
}

// Consequence is the ordered list of effects attached to a choice.
type Consequence []Effect

// Validate validates every effect.
func (c Consequence) Validate(known []string) error {
	var errs []error
	for i, e := range c {
		if err := e.Validate(known); err != nil {
			errs = append(errs, fmt.Errorf("effect %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Apply applies the consequence in order. Effects naming an attribute the state
// does not carry are skipped and returned; an unknown effect kind aborts before
// any mutation.
func (s *PlayerState) Apply(c Consequence) (skipped []string, err error) {
	for _, e := range c {
		if e.Kind != EffectSet && e.Kind != EffectAdd {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, e.Kind)
		}
	}
	for _, e := range c {
		cur, ok := s.Attributes[e.Attribute]
		if !ok {
			skipped = append(skipped, e.Attribute)
			continue
		}
		switch e.Kind {
		case EffectSet:
			s.Attributes[e.Attribute] = e.Value
		case EffectAdd:
			s.Attributes[e.Attribute] = cur + e.Value
		}
	}
	return skipped, nil
}
