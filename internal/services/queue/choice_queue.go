package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwebster45206/defcon/pkg/queue"
	"github.com/redis/go-redis/v9"
)

// ChoiceKey is the Redis list holding pending choice requests.
const ChoiceKey = "choices:pending"

// ChoiceQueue is a FIFO of choice requests shared by the HTTP surface and the workers.
type ChoiceQueue struct {
	client *Client
}

func NewChoiceQueue(client *Client) *ChoiceQueue {
	return &ChoiceQueue{
		client: client,
	}
}

// Enqueue appends a request to the queue.
func (q *ChoiceQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}
	if err := q.client.rdb.RPush(ctx, ChoiceKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	q.client.logger.Debug("Choice enqueued",
		"request_id", req.RequestID,
		"game_id", req.GameID.String(),
		"player_id", req.PlayerID)
	return nil
}

// Dequeue removes and returns the next request, or nil when the queue is empty.
func (q *ChoiceQueue) Dequeue(ctx context.Context) (*queue.Request, error) {
	result, err := q.client.rdb.LPop(ctx, ChoiceKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}
	return parse(result)
}

// BlockingDequeue waits up to timeout for a request. It returns nil, nil when
// the timeout passes with nothing queued. Redis rounds timeouts below one
// second up to one second.
func (q *ChoiceQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, ChoiceKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}
	return parse(result[1])
}

// Depth returns the number of queued requests.
func (q *ChoiceQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, ChoiceKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}

func parse(raw string) (*queue.Request, error) {
	req, err := queue.FromJSON([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}
