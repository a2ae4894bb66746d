package state

import (
	"fmt"
	"strconv"
	"strings"
)

// Predicate gates whether content is offered for a given state.
type Predicate interface {
	Evaluate(s *PlayerState) bool
}

// Op is a comparison operator used by Condition.
type Op string

const (
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
)

// operators are ordered so that two-character forms match before their prefixes
var operators = []Op{OpLessEqual, OpGreaterEqual, OpEqual, OpNotEqual, OpLess, OpGreater}

// Condition compares one attribute against a threshold, e.g. "loyalty > 50".
type Condition struct {
	Attribute string `json:"attribute"`
	Op        Op     `json:"op"`
	Value     int    `json:"value"`
}

// Evaluate returns false when the attribute is missing from the state.
func (c Condition) Evaluate(s *PlayerState) bool {
	v, ok := s.Get(c.Attribute)
	if !ok {
		return false
	}
	switch c.Op {
	case OpLess:
		return v < c.Value
	case OpLessEqual:
		return v <= c.Value
	case OpGreater:
		return v > c.Value
	case OpGreaterEqual:
		return v >= c.Value
	case OpEqual:
		return v == c.Value
	case OpNotEqual:
		return v != c.Value
	default:
		return false
	}
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %d", c.Attribute, c.Op, c.Value)
}

// ParseCondition parses expressions of the form "<attribute> <op> <integer>".
func ParseCondition(expr string) (Condition, error) {
	expr = strings.TrimSpace(expr)
	for _, op := range operators {
		idx := strings.Index(expr, string(op))
		if idx < 0 {
			continue
		}
		attr := strings.TrimSpace(expr[:idx])
		raw := strings.TrimSpace(expr[idx+len(op):])
		if attr == "" {
			return Condition{}, fmt.Errorf("condition %q: missing attribute", expr)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Condition{}, fmt.Errorf("condition %q: invalid threshold: %w", expr, err)
		}
		return Condition{Attribute: attr, Op: op, Value: v}, nil
	}
	return Condition{}, fmt.Errorf("condition %q: no comparison operator", expr)
}

// All is satisfied when every condition holds. An empty All is always satisfied.
type All []Condition

func (a All) Evaluate(s *PlayerState) bool {
	for _, c := range a {
		if !c.Evaluate(s) {
			return false
		}
	}
	return true
}

// Attributes lists the attributes referenced by the conditions.
func (a All) Attributes() []string {
	out := make([]string, 0, len(a))
	for _, c := range a {
		out = append(out, c.Attribute)
	}
	return out
}
