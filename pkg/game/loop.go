package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/pkg/actor"
	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/state"
)

const genericFailureBody = "Something went wrong while running this round. The game continues; contact the developers if this keeps happening."

// Run drives the game until ctx is cancelled, every player is gone, or the
// total duration has elapsed. Per-player failures never stop the loop.
func (g *Game) Run(ctx context.Context) error {
	if g.PlayerCount() == 0 {
		return ErrNoPlayers
	}
	if !g.status.CompareAndSwap(int32(StatusCreated), int32(StatusRunning)) {
		if g.Status() == StatusEnded {
			return ErrGameEnded
		}
		return ErrGameRunning
	}
	defer g.end()

	g.mu.Lock()
	g.startedAt = g.cfg.clock.Now()
	g.mu.Unlock()

	g.log.Info("Game started",
		"players", g.PlayerCount(),
		"duration", g.duration,
		"thresholds", g.cfg.thresholds)

	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			g.log.Info("Game stopped", "reason", err, "iteration", iteration)
			return nil
		}

		elapsed := g.elapsed()
		if elapsed >= g.duration {
			g.finish(ctx)
			return nil
		}
		if prev, next, advanced := g.advanceStage(elapsed); advanced {
			g.log.Info("Stage advanced",
				"from", int(prev),
				"to", int(next),
				"elapsed", elapsed)
		}

		players := g.snapshot()
		if len(players) == 0 {
			g.log.Info("Game ended with no players left", "iteration", iteration)
			return nil
		}

		if err := g.iterate(ctx, players); err != nil {
			g.reportFailure(ctx, players, err)
		}
	}
}

// advanceStage moves at most one stage forward when elapsed has passed the
// current stage's cumulative threshold and the game is not over yet.
func (g *Game) advanceStage(elapsed float64) (prev, next content.Stage, advanced bool) {
	cur := g.Stage()
	if cur >= content.MaxStage || elapsed >= g.duration {
		return cur, cur, false
	}
	if elapsed <= g.cfg.thresholds[cur-1]*g.duration {
		return cur, cur, false
	}
	next = cur + 1
	g.stage.Store(int32(next))
	return cur, next, true
}

// iterate ticks every player concurrently and waits for all of them.
func (g *Game) iterate(ctx context.Context, players []*Player) error {
	errs := make([]error, len(players))
	var wg sync.WaitGroup
	for i, p := range players {
		wg.Go(func() {
			errs[i] = g.tick(ctx, p)
		})
	}
	wg.Wait()

	var failures []error
	for _, err := range errs {
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		failures = append(failures, err)
	}
	return errors.Join(failures...)
}

// reportFailure logs the details and tells every player, once, that something
// went wrong. Internal error text is never sent to players.
func (g *Game) reportFailure(ctx context.Context, players []*Player, err error) {
	var te *TickError
	for _, e := range unwrapJoined(err) {
		if errors.As(e, &te) {
			g.log.Error("Player tick failed",
				"player_id", te.PlayerID,
				"stage", int(te.Stage),
				"error", te.Err)
			continue
		}
		g.log.Error("Tick failed", "error", e)
	}

	g.broadcast(ctx, players, Message{
		Kind:  MessageError,
		Title: "Some error has occurred",
		Body:  genericFailureBody,
	})
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// tick is one scheduled unit of work for a player.
func (g *Game) tick(ctx context.Context, p *Player) error {
	stage := g.Stage()

	if lost := p.lost(g.cfg.tracked); len(lost) > 0 {
		g.kill(ctx, p, lost)
		return nil
	}

	deliverErr := g.deliverEvent(ctx, p, stage)
	sleepErr := g.cfg.clock.Sleep(ctx, g.interval(stage))

	if deliverErr != nil {
		return &TickError{PlayerID: p.id, Stage: stage, Err: deliverErr}
	}
	return sleepErr
}

// deliverEvent picks an actor and a template for the player's stage and sends it.
// Empty pools and render failures skip the delivery without failing the tick.
func (g *Game) deliverEvent(ctx context.Context, p *Player, stage content.Stage) error {
	a, err := g.actors.Random(g.rng)
	if err != nil {
		return err
	}

	st := p.State()
	tpl, err := a.SelectFor(g.rng, stage, st)
	if errors.Is(err, actor.ErrEmptyPool) {
		g.log.Debug("No event this tick",
			"player_id", p.id,
			"stage", int(stage),
			"actor", a.Name())
		return nil
	}
	if err != nil {
		return err
	}

	body, err := tpl.Render(st)
	if err != nil {
		g.log.Warn("Skipping delivery, template failed to render",
			"player_id", p.id,
			"stage", int(stage),
			"actor", a.Name(),
			"error", err)
		return nil
	}

	msg := Message{
		Kind:    MessageEvent,
		Title:   fmt.Sprintf("%s of %s", a.Name(), st.NationName),
		Body:    body,
		Actor:   a.Name(),
		Picture: a.Picture(),
		Stage:   int(stage),
	}

	ct, isChoice := tpl.(*content.ChoiceTemplate)
	if isChoice {
		msg.Kind = MessageChoice
		msg.PromptID = uuid.NewString()
		msg.Choices = ct.Labels()
		// register before sending so an immediate answer finds the prompt
		p.offer(msg.PromptID, ct)
	}

	err = g.send(ctx, p, msg)
	if errors.Is(err, errPlayerRemoved) {
		return nil
	}
	if err != nil {
		if isChoice {
			p.withdraw(msg.PromptID)
		}
		return fmt.Errorf("deliver: %w", err)
	}
	return nil
}

// send delivers to one player unless the player has been removed. Holding the
// player's lock makes removal and delivery mutually exclusive.
func (g *Game) send(ctx context.Context, p *Player, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.removed {
		return errPlayerRemoved
	}
	return g.delivery.Send(ctx, g.id, p.id, msg)
}

// broadcast sends msg to every given player, logging failures.
func (g *Game) broadcast(ctx context.Context, players []*Player, msg Message) {
	for _, p := range players {
		if err := g.send(ctx, p, msg); err != nil && !errors.Is(err, errPlayerRemoved) {
			g.log.Warn("Broadcast delivery failed",
				"player_id", p.id,
				"kind", msg.Kind,
				"error", err)
		}
	}
}

// kill handles the lose condition for p exactly once: every player is told,
// then p is removed.
func (g *Game) kill(ctx context.Context, p *Player, lost []string) {
	if !p.dead.CompareAndSwap(false, true) {
		return
	}

	nation := p.State().NationName
	names := make([]string, len(lost))
	for i, attr := range lost {
		names[i] = state.DisplayName(attr)
	}

	g.log.Info("Player lost",
		"player_id", p.id,
		"nation", nation,
		"attributes", lost,
		"stage", int(g.Stage()))

	g.broadcast(ctx, g.snapshot(), Message{
		Kind:  MessageNotice,
		Title: "We have lost a national leader in the turmoil",
		Body:  fmt.Sprintf("%s has lost their leadership, which was held by %s. Collapsed: %s.", nation, p.id, strings.Join(names, ", ")),
	})

	if err := g.RemovePlayer(p.id); err != nil && !errors.Is(err, ErrPlayerNotFound) {
		g.log.Error("Failed to remove dead player", "player_id", p.id, "error", err)
	}
}

// finish tells the surviving players the game is over.
func (g *Game) finish(ctx context.Context) {
	players := g.snapshot()
	g.log.Info("Game duration elapsed", "survivors", len(players))

	for _, p := range players {
		nation := p.State().NationName
		if err := g.send(ctx, p, Message{
			Kind:  MessageNotice,
			Title: "The crisis is over",
			Body:  fmt.Sprintf("%s survived to the end. Well governed.", nation),
		}); err != nil && !errors.Is(err, errPlayerRemoved) {
			g.log.Warn("Failed to deliver end notice", "player_id", p.id, "error", err)
		}
	}
}

// interval returns the pause after a tick. Pace quickens with each stage.
func (g *Game) interval(stage content.Stage) time.Duration {
	var base, lo, hi float64
	switch stage {
	case content.StageOpening:
		base, lo, hi = 10, -2, 2
	case content.StageEscalation:
		base, lo, hi = 8, -2, 1.5
	default:
		base, lo, hi = 6, -1, 0.75
	}
	units := base + g.rng.uniform(lo, hi)
	return time.Duration(units * float64(g.cfg.intervalUnit))
}
