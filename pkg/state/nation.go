package state

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Nation attributes tracked for the lose condition.
const (
	AttrLoyalty      = "loyalty"
	AttrMoney        = "money"
	AttrSecurity     = "security"
	AttrWorldOpinion = "world_opinion"
)

// FieldNationName is the placeholder name that renders the nation's name.
const FieldNationName = "nation_name"

// TrackedAttributes returns the attributes checked for the lose condition, in display order.
func TrackedAttributes() []string {
	return []string{AttrLoyalty, AttrMoney, AttrSecurity, AttrWorldOpinion}
}

// PlayerState is the hidden, mutable state of one player's nation.
type PlayerState struct {
	NationName string         `json:"nation_name"`
	Attributes map[string]int `json:"attributes"`
}

// New creates a PlayerState. The attribute map is copied.
func New(nationName string, attrs map[string]int) *PlayerState {
	s := &PlayerState{
		NationName: nationName,
		Attributes: make(map[string]int, len(attrs)),
	}
	maps.Copy(s.Attributes, attrs)
	return s
}

// Clone returns a deep copy of the state.
func (s *PlayerState) Clone() *PlayerState {
	if s == nil {
		return nil
	}
	return New(s.NationName, s.Attributes)
}

// Get returns the value of a nation attribute.
func (s *PlayerState) Get(attr string) (int, bool) {
	if s == nil || s.Attributes == nil {
		return 0, false
	}
	v, ok := s.Attributes[attr]
	return v, ok
}

// Has reports whether the state carries the attribute.
func (s *PlayerState) Has(attr string) bool {
	_, ok := s.Get(attr)
	return ok
}

// Lookup resolves a template placeholder to its display value.
func (s *PlayerState) Lookup(field string) (string, bool) {
	if s == nil {
		return "", false
	}
	if field == FieldNationName {
		return s.NationName, true
	}
	v, ok := s.Get(field)
	if !ok {
		return "", false
	}
	return strconv.Itoa(v), true
}

// Fields lists every placeholder name the state can render, sorted.
func (s *PlayerState) Fields() []string {
	fields := []string{FieldNationName}
	if s != nil {
		fields = append(fields, slices.Collect(maps.Keys(s.Attributes))...)
	}
	slices.Sort(fields)
	return fields
}

// Negative returns the tracked attributes whose value is below zero.
// Tracked attributes missing from the state are not considered negative.
func (s *PlayerState) Negative(tracked []string) []string {
	var out []string
	for _, attr := range tracked {
		if v, ok := s.Get(attr); ok && v < 0 {
			out = append(out, attr)
		}
	}
	return out
}

// IsAlive reports whether every tracked attribute is non-negative.
func (s *PlayerState) IsAlive(tracked []string) bool {
	return len(s.Negative(tracked)) == 0
}

var titleCaser = cases.Title(language.English)

// DisplayName turns an attribute key such as "world_opinion" into "World Opinion".
func DisplayName(attr string) string {
	return titleCaser.String(strings.ReplaceAll(attr, "_", " "))
}
