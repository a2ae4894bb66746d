package content

import "fmt"

// Stage is a discrete phase of a game's lifeline. Stages only ever advance.
type Stage int

const (
	StageOpening    Stage = 1
	StageEscalation Stage = 2
	StageCrisis     Stage = 3

	// MaxStage is the final declared stage.
	MaxStage = StageCrisis
)

// Stages returns every declared stage in order.
func Stages() []Stage {
	out := make([]Stage, 0, MaxStage)
	for s := StageOpening; s <= MaxStage; s++ {
		out = append(out, s)
	}
	return out
}

// Valid reports whether s is a declared stage.
func (s Stage) Valid() bool {
	return s >= StageOpening && s <= MaxStage
}

func (s Stage) String() string {
	switch s {
	case StageOpening:
		return "opening"
	case StageEscalation:
		return "escalation"
	case StageCrisis:
		return "crisis"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}
