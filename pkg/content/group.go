package content

import "slices"

// StageGroup binds an ordered set of templates to one or more stages, or to all of them.
type StageGroup struct {
	stages    []Stage
	all       bool
	templates []Content
}

// ForStage binds templates to a single stage.
func ForStage(stage Stage, templates ...Content) StageGroup {
	return ForStages([]Stage{stage}, templates...)
}

// ForStages binds templates to several stages.
func ForStages(stages []Stage, templates ...Content) StageGroup {
	return StageGroup{
		stages:    slices.Clone(stages),
		templates: slices.Clone(templates),
	}
}

// ForAll binds templates to every declared stage.
func ForAll(templates ...Content) StageGroup {
	return StageGroup{
		all:       true,
		templates: slices.Clone(templates),
	}
}

// Includes reports whether the group applies to the stage.
func (g StageGroup) Includes(stage Stage) bool {
	if g.all {
		return stage.Valid()
	}
	return slices.Contains(g.stages, stage)
}

// AllStages reports whether the group was declared for every stage.
func (g StageGroup) AllStages() bool { return g.all }

// Stages returns the explicit stages of the group, or every stage for ForAll groups.
func (g StageGroup) Stages() []Stage {
	if g.all {
		return Stages()
	}
	return slices.Clone(g.stages)
}

// Templates returns the templates in declaration order.
func (g StageGroup) Templates() []Content {
	return slices.Clone(g.templates)
}
