// Package characters registers the built-in actors with the loader.
// Import it for its side effects.
package characters

import (
	"github.com/jwebster45206/defcon/internal/loader"
	"github.com/jwebster45206/defcon/pkg/actor"
	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
)

func init() {
	loader.Register("builtin/general", loader.UnitFunc(general))
	loader.Register("builtin/press-secretary", loader.UnitFunc(pressSecretary))
	loader.Register("builtin/spymaster", loader.UnitFunc(spymaster))
}

func general() (*actor.Actor, error) {
	return actor.New("General Harrow", "",
		content.ForAll(
			content.NewTemplate("The barracks of {nation_name} report readiness. Security stands at {security}."),
			content.NewTemplate("Border patrols found nothing unusual tonight."),
		),
		content.ForStage(content.StageOpening,
			content.NewChoiceTemplate("Recruitment is slow. Shall we offer a signing bonus?",
				content.Choice{Label: "Pay the bonus", Consequence: state.Consequence{
					state.Add(state.AttrMoney, -8),
					state.Add(state.AttrSecurity, 6),
				}},
				content.Choice{Label: "Wait it out"},
			),
		),
		content.ForStages([]content.Stage{content.StageEscalation, content.StageCrisis},
			content.NewChoiceTemplate("Unrest in the capital. Deploy the army to the streets?",
				content.Choice{Label: "Deploy", Consequence: state.Consequence{
					state.Add(state.AttrSecurity, 10),
					state.Add(state.AttrLoyalty, -12),
					state.Add(state.AttrWorldOpinion, -8),
				}},
				content.Choice{Label: "Hold back", Consequence: state.Consequence{
					state.Add(state.AttrSecurity, -10),
				}},
			).WithWeight(60),
		),
		content.ForStage(content.StageCrisis,
			content.NewChoiceTemplate("The garrison is close to mutiny over missing wages.",
				content.Choice{Label: "Pay them from the reserves", Consequence: state.Consequence{
					state.Add(state.AttrMoney, -15),
					state.Add(state.AttrSecurity, 5),
				}},
				content.Choice{Label: "Arrest the ringleaders", Consequence: state.Consequence{
					state.Add(state.AttrSecurity, -5),
					state.Add(state.AttrLoyalty, -10),
				}},
			).When(state.All{{Attribute: state.AttrMoney, Op: state.OpGreaterEqual, Value: 15}}),
		),
	)
}

func pressSecretary() (*actor.Actor, error) {
	return actor.New("Press Secretary Lune", "",
		content.ForAll(
			content.NewTemplate("Polls put public loyalty to the government of {nation_name} at {loyalty}."),
			content.NewTemplate("Foreign papers rate us {world_opinion} out of a hundred. They are not kind."),
		),
		content.ForStages([]content.Stage{content.StageOpening, content.StageEscalation},
			content.NewChoiceTemplate("A journalist asks about the budget. How do we answer?",
				content.Choice{Label: "Tell the truth", Consequence: state.Consequence{
					state.Add(state.AttrWorldOpinion, 5),
					state.Add(state.AttrLoyalty, -3),
				}},
				content.Choice{Label: "Spin it", Consequence: state.Consequence{
					state.Add(state.AttrLoyalty, 4),
					state.Add(state.AttrWorldOpinion, -6),
				}},
			),
		),
		content.ForStage(content.StageCrisis,
			content.NewChoiceTemplate("Loyalty is collapsing. Declare a national holiday?",
				content.Choice{Label: "Declare it", Consequence: state.Consequence{
					state.Add(state.AttrLoyalty, 12),
					state.Add(state.AttrMoney, -10),
				}},
				content.Choice{Label: "Stay the course"},
			).When(state.All{{Attribute: state.AttrLoyalty, Op: state.OpLess, Value: 30}}),
		),
	)
}

func spymaster() (*actor.Actor, error) {
	return actor.New("The Spymaster", "",
		content.ForStage(content.StageOpening,
			content.NewTemplate("Nothing to report. That is what worries me.").WithWeight(40),
		),
		content.ForStages([]content.Stage{content.StageEscalation, content.StageCrisis},
			content.NewTemplate("Our agents abroad whisper that {nation_name} is being watched."),
			content.NewChoiceTemplate("We caught a foreign agent. What do we do with them?",
				content.Choice{Label: "Trade them back", Consequence: state.Consequence{
					state.Add(state.AttrWorldOpinion, 8),
					state.Add(state.AttrSecurity, -4),
				}},
				content.Choice{Label: "Public trial", Consequence: state.Consequence{
					state.Add(state.AttrLoyalty, 6),
					state.Add(state.AttrWorldOpinion, -10),
				}},
			),
		),
	)
}
