package game

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
)

const (
	// MinDuration and MaxDuration bound the randomly sampled game length, in duration units.
	MinDuration = 12.5
	MaxDuration = 16.0

	DefaultDurationUnit = time.Minute
	DefaultIntervalUnit = time.Second
)

// DefaultThresholds are the cumulative fractions of the game duration at which
// each stage ends.
var DefaultThresholds = []float64{0.25, 0.6, 1.0}

// Range is an inclusive integer range used to seed starting attributes.
type Range struct {
	Min int
	Max int
}

// DefaultStartingRanges seeds every tracked attribute between 30 and 60.
func DefaultStartingRanges() map[string]Range {
	out := make(map[string]Range)
	for _, attr := range state.TrackedAttributes() {
		out[attr] = Range{Min: 30, Max: 60}
	}
	return out
}

// DefaultNationNames is the pool of names handed out on join.
var DefaultNationNames = []string{
	"Valdoria", "Ostmark", "Kessia", "Numbria", "Carthane", "Lorvia",
	"Tessaly", "Marrowind", "Brasca", "Quorland", "Ysmere", "Dravania",
}

type settings struct {
	clock        Clock
	seed         uint64
	seeded       bool
	duration     float64
	thresholds   []float64
	tracked      []string
	durationUnit time.Duration
	intervalUnit time.Duration
	starting     map[string]Range
	nations      []string
}

func defaultSettings() settings {
	return settings{
		clock:        systemClock{},
		thresholds:   slices.Clone(DefaultThresholds),
		tracked:      state.TrackedAttributes(),
		durationUnit: DefaultDurationUnit,
		intervalUnit: DefaultIntervalUnit,
		starting:     DefaultStartingRanges(),
		nations:      slices.Clone(DefaultNationNames),
	}
}

func (s settings) validate() error {
	var errs []error
	if len(s.thresholds) != int(content.MaxStage) {
		errs = append(errs, fmt.Errorf("need %d stage thresholds, got %d", content.MaxStage, len(s.thresholds)))
	}
	for i, th := range s.thresholds {
		if th <= 0 || th > 1 {
			errs = append(errs, fmt.Errorf("threshold %d out of (0, 1]: %v", i, th))
		}
		if i > 0 && th < s.thresholds[i-1] {
			errs = append(errs, fmt.Errorf("thresholds must be non-decreasing: %v", s.thresholds))
		}
	}
	if s.seededDuration() && s.duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %v", s.duration))
	}
	if s.durationUnit <= 0 || s.intervalUnit <= 0 {
		errs = append(errs, errors.New("time units must be positive"))
	}
	for attr, r := range s.starting {
		if r.Min > r.Max {
			errs = append(errs, fmt.Errorf("starting range for %s is inverted", attr))
		}
	}
	return errors.Join(errs...)
}

func (s settings) seededDuration() bool { return s.duration != 0 }

// Option configures a Game.
type Option func(*settings)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithSeed makes every random draw of the game reproducible.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = seed
		s.seeded = true
	}
}

// WithDuration fixes the total duration instead of sampling it.
func WithDuration(units float64) Option {
	return func(s *settings) { s.duration = units }
}

// WithThresholds overrides the cumulative stage thresholds.
func WithThresholds(th ...float64) Option {
	return func(s *settings) { s.thresholds = slices.Clone(th) }
}

// WithTrackedAttributes overrides the attributes checked for the lose condition.
func WithTrackedAttributes(attrs ...string) Option {
	return func(s *settings) { s.tracked = slices.Clone(attrs) }
}

// WithUnits sets the real time of one duration unit (game length) and one
// interval unit (pause between ticks).
func WithUnits(durationUnit, intervalUnit time.Duration) Option {
	return func(s *settings) {
		s.durationUnit = durationUnit
		s.intervalUnit = intervalUnit
	}
}

// WithStartingRanges overrides how starting attributes are sampled.
func WithStartingRanges(ranges map[string]Range) Option {
	return func(s *settings) { s.starting = ranges }
}

// WithNationNames overrides the pool of nation names.
func WithNationNames(names ...string) Option {
	return func(s *settings) { s.nations = slices.Clone(names) }
}
