// Package content defines the immutable narrative units that actors draw from.
package content

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jwebster45206/defcon/pkg/state"
)

// DefaultWeight is the selection weight of a template that does not set one.
const DefaultWeight = 100

// Content is anything an actor can select and deliver.
type Content interface {
	// Text is the unrendered format string.
	Text() string
	// Weight is the relative likelihood within a pool. Zero is never drawn.
	Weight() int
	// Render substitutes the state into Text.
	Render(st *state.PlayerState) (string, error)
	// IsAvailable reports whether the content may be offered for the state.
	IsAvailable(st *state.PlayerState) bool
}

// Template is plain narrative text.
type Template struct {
	text   string
	weight int
}

var _ Content = (*Template)(nil)

// NewTemplate creates a template with DefaultWeight.
func NewTemplate(text string) *Template {
	return &Template{text: text, weight: DefaultWeight}
}

// WithWeight returns a copy of the template with the given weight.
func (t *Template) WithWeight(weight int) *Template {
	c := *t
	c.weight = weight
	return &c
}

func (t *Template) Text() string { return t.text }

func (t *Template) Weight() int { return t.weight }

func (t *Template) Render(st *state.PlayerState) (string, error) {
	return Render(t.text, st)
}

func (t *Template) IsAvailable(*state.PlayerState) bool { return true }

// Choice is one labelled option of a ChoiceTemplate.
type Choice struct {
	Label       string
	Consequence state.Consequence
}

// ChoiceTemplate is narrative text that asks the player to pick one of its choices.
type ChoiceTemplate struct {
	Template
	choices   []Choice
	predicate state.Predicate
}

var _ Content = (*ChoiceTemplate)(nil)

// NewChoiceTemplate creates a choice template with DefaultWeight and no predicate.
func NewChoiceTemplate(text string, choices ...Choice) *ChoiceTemplate {
	return &ChoiceTemplate{
		Template: Template{text: text, weight: DefaultWeight},
		choices:  slices.Clone(choices),
	}
}

// WithWeight returns a copy with the given weight.
func (c *ChoiceTemplate) WithWeight(weight int) *ChoiceTemplate {
	cp := *c
	cp.weight = weight
	return &cp
}

// When returns a copy gated by the predicate.
func (c *ChoiceTemplate) When(p state.Predicate) *ChoiceTemplate {
	cp := *c
	cp.predicate = p
	return &cp
}

// Predicate returns the availability gate, or nil.
func (c *ChoiceTemplate) Predicate() state.Predicate { return c.predicate }

// IsAvailable is true when no predicate is set, otherwise the predicate's verdict.
func (c *ChoiceTemplate) IsAvailable(st *state.PlayerState) bool {
	if c.predicate == nil {
		return true
	}
	return c.predicate.Evaluate(st)
}

// Choices returns the choices in presentation order.
func (c *ChoiceTemplate) Choices() []Choice {
	return slices.Clone(c.choices)
}

// Labels returns the choice labels in presentation order.
func (c *ChoiceTemplate) Labels() []string {
	labels := make([]string, len(c.choices))
	for i, ch := range c.choices {
		labels[i] = ch.Label
	}
	return labels
}

// Consequence looks up the consequence for a label.
func (c *ChoiceTemplate) Consequence(label string) (state.Consequence, bool) {
	for _, ch := range c.choices {
		if ch.Label == label {
			return ch.Consequence, true
		}
	}
	return nil, false
}

// Validate checks weight, placeholder syntax and choices.
func Validate(c Content) error {
	var errs []error
	if c.Weight() < 0 {
		errs = append(errs, fmt.Errorf("negative weight %d", c.Weight()))
	}
	if _, err := Placeholders(c.Text()); err != nil {
		errs = append(errs, err)
	}
	if ct, ok := c.(*ChoiceTemplate); ok {
		if len(ct.choices) == 0 {
			errs = append(errs, errors.New("choice template has no choices"))
		}
		seen := make(map[string]bool, len(ct.choices))
		for _, ch := range ct.choices {
			if ch.Label == "" {
				errs = append(errs, errors.New("choice with empty label"))
			}
			if seen[ch.Label] {
				errs = append(errs, fmt.Errorf("duplicate choice label %q", ch.Label))
			}
			seen[ch.Label] = true
		}
	}
	return errors.Join(errs...)
}
