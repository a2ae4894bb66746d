package actor

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(42, 1024))
}

func TestNew_PoolsByStage(t *testing.T) {
	opening := content.NewTemplate("opening only")
	late := content.NewTemplate("escalation and crisis")
	always := content.NewTemplate("any time")

	a, err := New("Chief of Staff", "",
		content.ForStage(content.StageOpening, opening),
		content.ForStages([]content.Stage{content.StageEscalation, content.StageCrisis}, late),
		content.ForAll(always),
	)
	require.NoError(t, err)

	assert.Equal(t, []content.Content{opening, always}, a.Pool(content.StageOpening))
	assert.Equal(t, []content.Content{late, always}, a.Pool(content.StageEscalation))
	assert.Equal(t, []content.Content{late, always}, a.Pool(content.StageCrisis))
	assert.Nil(t, a.Pool(content.Stage(9)))
}

func TestNew_Rejects(t *testing.T) {
	_, err := New("", "")
	assert.Error(t, err)

	_, err = New("Bad", "", content.ForAll(content.NewTemplate("x").WithWeight(-5)))
	assert.Error(t, err)

	_, err = New("Bad", "", content.ForAll(content.NewChoiceTemplate("no choices")))
	assert.Error(t, err)

	_, err = New("Bad", "", content.ForStage(content.Stage(7), content.NewTemplate("never drawn")))
	assert.ErrorIs(t, err, ErrUnknownStage)

	_, err = New("Bad", "", content.ForStages([]content.Stage{content.StageOpening, 0}, content.NewTemplate("x")))
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestSelect_OnlyStageEligible(t *testing.T) {
	byStage := map[content.Stage]*content.Template{}
	var groups []content.StageGroup
	for _, s := range content.Stages() {
		tpl := content.NewTemplate(s.String())
		byStage[s] = tpl
		groups = append(groups, content.ForStage(s, tpl))
	}
	shared := content.NewTemplate("shared")
	groups = append(groups, content.ForAll(shared))

	a, err := New("Advisor", "", groups...)
	require.NoError(t, err)

	rng := newRand()
	for _, s := range content.Stages() {
		for range 500 {
			got, err := a.Select(rng, s)
			require.NoError(t, err)
			if got != content.Content(byStage[s]) && got != content.Content(shared) {
				t.Fatalf("stage %s selected ineligible template %q", s, got.Text())
			}
		}
	}
}

func TestSelect_WeightedFrequency(t *testing.T) {
	low := content.NewTemplate("low").WithWeight(100)
	mid := content.NewTemplate("mid").WithWeight(300)
	high := content.NewTemplate("high").WithWeight(600)

	a, err := New("Treasury", "", content.ForAll(low, mid, high))
	require.NoError(t, err)

	const draws = 100_000
	counts := map[content.Content]int{}
	rng := newRand()
	for range draws {
		got, err := a.Select(rng, content.StageOpening)
		require.NoError(t, err)
		counts[got]++
	}

	assert.InDelta(t, 0.1, float64(counts[low])/draws, 0.01)
	assert.InDelta(t, 0.3, float64(counts[mid])/draws, 0.01)
	assert.InDelta(t, 0.6, float64(counts[high])/draws, 0.01)
}

func TestSelect_ZeroWeightNeverChosen(t *testing.T) {
	normal := content.NewTemplate("normal")
	never := content.NewTemplate("never").WithWeight(0)

	a, err := New("Spymaster", "", content.ForStage(content.StageOpening, normal, never))
	require.NoError(t, err)

	rng := newRand()
	for range 10_000 {
		got, err := a.Select(rng, content.StageOpening)
		require.NoError(t, err)
		require.NotSame(t, never, got)
	}
}

func TestSelect_EmptyPool(t *testing.T) {
	a, err := New("Silent", "",
		content.ForStage(content.StageOpening, content.NewTemplate("hi")),
		content.ForStage(content.StageEscalation, content.NewTemplate("muted").WithWeight(0)),
	)
	require.NoError(t, err)

	_, err = a.Select(newRand(), content.StageCrisis)
	assert.True(t, errors.Is(err, ErrEmptyPool))

	_, err = a.Select(newRand(), content.StageEscalation)
	assert.True(t, errors.Is(err, ErrEmptyPool), "all-zero weights count as empty")

	_, err = a.Select(newRand(), content.Stage(0))
	assert.True(t, errors.Is(err, ErrUnknownStage))
}

func TestSelectFor_RespectsPredicate(t *testing.T) {
	gated := content.NewChoiceTemplate("Loyalists rally to {nation_name}.",
		content.Choice{Label: "Reward them", Consequence: state.Consequence{state.Add(state.AttrMoney, -5)}},
	).When(state.Condition{Attribute: state.AttrLoyalty, Op: state.OpGreater, Value: 50})
	plain := content.NewTemplate("Nothing happens.")

	a, err := New("Interior Minister", "", content.ForAll(gated, plain))
	require.NoError(t, err)

	disloyal := state.New("A", map[string]int{state.AttrLoyalty: 40})
	rng := newRand()
	for range 1000 {
		got, err := a.SelectFor(rng, content.StageOpening, disloyal)
		require.NoError(t, err)
		require.Same(t, plain, got)
	}

	onlyGated, err := New("Gated", "", content.ForAll(gated))
	require.NoError(t, err)
	_, err = onlyGated.SelectFor(rng, content.StageOpening, disloyal)
	assert.True(t, errors.Is(err, ErrEmptyPool))

	loyal := state.New("A", map[string]int{state.AttrLoyalty: 60})
	got, err := onlyGated.SelectFor(rng, content.StageOpening, loyal)
	require.NoError(t, err)
	assert.Same(t, gated, got)
}

func TestRegistry(t *testing.T) {
	a, _ := New("A", "", content.ForAll(content.NewTemplate("a")))
	b, _ := New("B", "", content.ForAll(content.NewTemplate("b")))

	r, err := NewRegistry(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"A", "B"}, r.Names())

	got, ok := r.Get("B")
	assert.True(t, ok)
	assert.Same(t, b, got)

	dup, _ := New("A", "", content.ForAll(content.NewTemplate("again")))
	assert.True(t, errors.Is(r.Add(dup), ErrDuplicateActor))

	seen := map[string]bool{}
	rng := newRand()
	for range 200 {
		picked, err := r.Random(rng)
		require.NoError(t, err)
		seen[picked.Name()] = true
	}
	assert.Len(t, seen, 2)

	empty, err := NewRegistry()
	require.NoError(t, err)
	_, err = empty.Random(rng)
	assert.True(t, errors.Is(err, ErrNoActors))
}
