package content

import (
	"errors"
	"testing"

	"github.com/jwebster45206/defcon/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nation(loyalty int) *state.PlayerState {
	return state.New("Valdoria", map[string]int{
		state.AttrLoyalty:      loyalty,
		state.AttrMoney:        25,
		state.AttrSecurity:     70,
		state.AttrWorldOpinion: 5,
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "plain", text: "The palace is quiet.", want: "The palace is quiet."},
		{name: "attributes", text: "{nation_name} holds {money} in reserve.", want: "Valdoria holds 25 in reserve."},
		{name: "padded placeholder", text: "Loyalty: { loyalty }", want: "Loyalty: 40"},
		{name: "escaped braces", text: "{{not a field}} {security}", want: "{not a field} 70"},
		{name: "unknown attribute", text: "{population} citizens", wantErr: true},
		{name: "unclosed", text: "a {money", wantErr: true},
		{name: "stray close", text: "a } b", wantErr: true},
		{name: "empty", text: "{}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.text, nation(40))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrRender))
				var re *RenderError
				assert.True(t, errors.As(err, &re))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Idempotent(t *testing.T) {
	tpl := NewTemplate("{nation_name}: loyalty {loyalty}, opinion {world_opinion}")
	st := nation(33)

	first, err := tpl.Render(st)
	require.NoError(t, err)
	second, err := tpl.Render(st)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlaceholders(t *testing.T) {
	fields, err := Placeholders("{nation_name} {{x}} {money} and {money}")
	require.NoError(t, err)
	assert.Equal(t, []string{"nation_name", "money", "money"}, fields)
}

func TestTemplate_Weight(t *testing.T) {
	tpl := NewTemplate("x")
	assert.Equal(t, DefaultWeight, tpl.Weight())

	heavy := tpl.WithWeight(250)
	assert.Equal(t, 250, heavy.Weight())
	assert.Equal(t, DefaultWeight, tpl.Weight(), "WithWeight must not mutate the receiver")
	assert.True(t, tpl.IsAvailable(nil))
}

func TestChoiceTemplate_IsAvailable(t *testing.T) {
	ct := NewChoiceTemplate("The generals demand a purge.",
		Choice{Label: "Agree", Consequence: state.Consequence{state.Add(state.AttrSecurity, 10)}},
		Choice{Label: "Refuse", Consequence: state.Consequence{state.Add(state.AttrLoyalty, -10)}},
	)
	assert.True(t, ct.IsAvailable(nation(0)), "no predicate means always available")

	gated := ct.When(state.Condition{Attribute: state.AttrLoyalty, Op: state.OpGreater, Value: 50})
	assert.False(t, gated.IsAvailable(nation(40)))
	assert.True(t, gated.IsAvailable(nation(60)))
	assert.Nil(t, ct.Predicate(), "When must not mutate the receiver")
}

func TestChoiceTemplate_Choices(t *testing.T) {
	ct := NewChoiceTemplate("Fund the space program?",
		Choice{Label: "Yes", Consequence: state.Consequence{state.Add(state.AttrMoney, -20)}},
		Choice{Label: "No"},
	).WithWeight(40)

	assert.Equal(t, 40, ct.Weight())
	assert.Equal(t, []string{"Yes", "No"}, ct.Labels())

	c, ok := ct.Consequence("Yes")
	require.True(t, ok)
	assert.Equal(t, state.Consequence{state.Add(state.AttrMoney, -20)}, c)

	_, ok = ct.Consequence("Maybe")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(NewTemplate("{money}")))
	assert.Error(t, Validate(NewTemplate("ok").WithWeight(-1)))
	assert.Error(t, Validate(NewTemplate("{money")))
	assert.Error(t, Validate(NewChoiceTemplate("no choices")))
	assert.Error(t, Validate(NewChoiceTemplate("dup", Choice{Label: "A"}, Choice{Label: "A"})))
	assert.NoError(t, Validate(NewChoiceTemplate("fine", Choice{Label: "A"}, Choice{Label: "B"})))
}

func TestStageGroup(t *testing.T) {
	a, b := NewTemplate("a"), NewTemplate("b")

	single := ForStage(StageEscalation, a)
	assert.True(t, single.Includes(StageEscalation))
	assert.False(t, single.Includes(StageOpening))

	multi := ForStages([]Stage{StageOpening, StageCrisis}, a, b)
	assert.True(t, multi.Includes(StageCrisis))
	assert.False(t, multi.Includes(StageEscalation))
	assert.Len(t, multi.Templates(), 2)

	all := ForAll(b)
	for _, s := range Stages() {
		assert.True(t, all.Includes(s))
	}
	assert.False(t, all.Includes(Stage(0)))
	assert.False(t, all.Includes(MaxStage+1))
	assert.Equal(t, Stages(), all.Stages())
}

func TestStages(t *testing.T) {
	assert.Equal(t, []Stage{StageOpening, StageEscalation, StageCrisis}, Stages())
	assert.Equal(t, "escalation", StageEscalation.String())
	assert.False(t, Stage(4).Valid())
}
