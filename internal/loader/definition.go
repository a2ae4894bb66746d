package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jwebster45206/defcon/pkg/actor"
	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of an actor.
//
//	name: Minister of Finance
//	picture: https://example.org/finance.png
//	groups:
//	  - stages: all
//	    templates:
//	      - text: "The treasury of {nation_name} holds {money} gold."
//	  - stages: [2, 3]
//	    templates:
//	      - text: "Bankers demand a bailout."
//	        weight: 50
//	        when: ["money < 40"]
//	        choices:
//	          - label: Pay
//	            effects:
//	              - {kind: add, attribute: money, value: -15}
type Definition struct {
	Name    string     `yaml:"name"`
	Picture string     `yaml:"picture"`
	Groups  []GroupDef `yaml:"groups"`
}

type GroupDef struct {
	Stages    StageSet      `yaml:"stages"`
	Templates []TemplateDef `yaml:"templates"`
}

type TemplateDef struct {
	Text    string      `yaml:"text"`
	Weight  *int        `yaml:"weight"`
	When    []string    `yaml:"when"`
	Choices []ChoiceDef `yaml:"choices"`
}

type ChoiceDef struct {
	Label   string         `yaml:"label"`
	Effects []state.Effect `yaml:"effects"`
}

// StageSet accepts "all", a single stage number, or a list of stage numbers.
type StageSet struct {
	All    bool
	Stages []content.Stage
}

func (s *StageSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if strings.EqualFold(strings.TrimSpace(node.Value), "all") {
			s.All = true
			return nil
		}
		st, err := parseStage(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		s.Stages = []content.Stage{st}
		return nil
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: stage must be a number", item.Line)
			}
			st, err := parseStage(item.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			s.Stages = append(s.Stages, st)
		}
		return nil
	default:
		return fmt.Errorf("line %d: stages must be \"all\", a number or a list", node.Line)
	}
}

func parseStage(raw string) (content.Stage, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid stage %q", raw)
	}
	st := content.Stage(n)
	if !st.Valid() {
		return 0, fmt.Errorf("stage %d out of range 1..%d", n, content.MaxStage)
	}
	return st, nil
}

// Decode reads a Definition. Unknown fields are rejected.
func Decode(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty content file")
		}
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return &def, nil
}

// DecodeFile reads a Definition from a YAML file.
func DecodeFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Build turns the definition into an actor. Effects without a kind overwrite
// the attribute.
func (d *Definition) Build() (*actor.Actor, error) {
	var errs []error
	groups := make([]content.StageGroup, 0, len(d.Groups))
	for gi, g := range d.Groups {
		if !g.Stages.All && len(g.Stages.Stages) == 0 {
			errs = append(errs, fmt.Errorf("group %d: stages are required", gi))
			continue
		}
		templates := make([]content.Content, 0, len(g.Templates))
		for ti, td := range g.Templates {
			c, err := td.build()
			if err != nil {
				errs = append(errs, fmt.Errorf("group %d template %d: %w", gi, ti, err))
				continue
			}
			templates = append(templates, c)
		}
		if g.Stages.All {
			groups = append(groups, content.ForAll(templates...))
		} else {
			groups = append(groups, content.ForStages(g.Stages.Stages, templates...))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("actor %q: %w", d.Name, err)
	}
	return actor.New(d.Name, d.Picture, groups...)
}

func (td TemplateDef) build() (content.Content, error) {
	if len(td.Choices) == 0 {
		if len(td.When) > 0 {
			return nil, errors.New("when is only allowed on templates with choices")
		}
		t := content.NewTemplate(td.Text)
		if td.Weight != nil {
			t = t.WithWeight(*td.Weight)
		}
		return t, nil
	}

	choices := make([]content.Choice, len(td.Choices))
	for i, cd := range td.Choices {
		c := make(state.Consequence, len(cd.Effects))
		for j, e := range cd.Effects {
			if e.Kind == "" {
				e.Kind = state.EffectSet
			}
			c[j] = e
		}
		if err := c.Validate(nil); err != nil {
			return nil, fmt.Errorf("choice %q: %w", cd.Label, err)
		}
		choices[i] = content.Choice{Label: cd.Label, Consequence: c}
	}

	ct := content.NewChoiceTemplate(td.Text, choices...)
	if td.Weight != nil {
		ct = ct.WithWeight(*td.Weight)
	}
	if len(td.When) > 0 {
		all := make(state.All, 0, len(td.When))
		for _, expr := range td.When {
			cond, err := state.ParseCondition(expr)
			if err != nil {
				return nil, err
			}
			all = append(all, cond)
		}
		ct = ct.When(all)
	}
	return ct, nil
}
