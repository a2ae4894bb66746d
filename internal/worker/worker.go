package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/pkg/game"
	queuePkg "github.com/jwebster45206/defcon/pkg/queue"
)

const defaultDequeueTimeout = 5 * time.Second

// Source yields queued choice requests. BlockingDequeue returns nil, nil when
// nothing arrived within timeout.
type Source interface {
	BlockingDequeue(ctx context.Context, timeout time.Duration) (*queuePkg.Request, error)
}

// Resolver applies a choice to a running game.
type Resolver interface {
	Choose(ctx context.Context, gameID uuid.UUID, playerID, promptID, label string) error
}

// Notifier tells a player their choice was not applied.
type Notifier interface {
	PublishChoiceRejected(ctx context.Context, gameID uuid.UUID, playerID, requestID, reason string) error
}

// Worker drains the choice queue and resolves each request against its game.
type Worker struct {
	id       string
	source   Source
	resolver Resolver
	notifier Notifier
	timeout  time.Duration
	log      *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a new worker instance. notifier may be nil.
func New(source Source, resolver Resolver, notifier Notifier, log *slog.Logger, workerID string, timeout time.Duration) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if timeout <= 0 {
		timeout = defaultDequeueTimeout
	}

	return &Worker{
		id:       workerID,
		source:   source,
		resolver: resolver,
		notifier: notifier,
		timeout:  timeout,
		log:      log.With("worker_id", workerID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start processes requests until Stop is called.
func (w *Worker) Start() error {
	w.log.Info("Worker starting")

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down")
			return nil
		default:
			if err := w.processNext(); err != nil {
				if w.ctx.Err() != nil {
					continue
				}
				w.log.Error("Error processing request", "error", err)
				// back off so a broken connection does not spin
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested")
	w.cancel()
}

// processNext pulls one request and applies it. Rejected choices are reported
// to the player, not returned as errors.
func (w *Worker) processNext() error {
	req, err := w.source.BlockingDequeue(w.ctx, w.timeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		return nil
	}

	w.log.Info("Received request from queue",
		"request_id", req.RequestID,
		"game_id", req.GameID.String(),
		"player_id", req.PlayerID,
		"prompt_id", req.PromptID)

	w.process(req)
	return nil
}

func (w *Worker) process(req *queuePkg.Request) {
	start := time.Now()

	err := req.Validate()
	if err == nil {
		err = w.resolver.Choose(w.ctx, req.GameID, req.PlayerID, req.PromptID, req.Label)
	}
	if err == nil {
		w.log.Info("Choice processed successfully",
			"request_id", req.RequestID,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}

	w.log.Warn("Choice rejected",
		"request_id", req.RequestID,
		"game_id", req.GameID.String(),
		"player_id", req.PlayerID,
		"error", err)

	if w.notifier == nil || req.PlayerID == "" {
		return
	}
	if pubErr := w.notifier.PublishChoiceRejected(w.ctx, req.GameID, req.PlayerID, req.RequestID, reason(err)); pubErr != nil {
		w.log.Error("Failed to publish rejection", "request_id", req.RequestID, "error", pubErr)
	}
}

// reason maps known failures to player-facing text. Anything else is generic.
func reason(err error) string {
	for _, known := range []error{
		game.ErrGameNotFound,
		game.ErrPlayerNotFound,
		game.ErrPromptNotFound,
		game.ErrChoiceNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "choice could not be applied"
}
