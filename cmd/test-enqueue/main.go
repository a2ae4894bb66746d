package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/internal/services/queue"
	queuePkg "github.com/jwebster45206/defcon/pkg/queue"
)

// Pushes one choice request onto the queue, bypassing the HTTP surface.
func main() {
	redisURL := flag.String("redis", "redis://localhost:6379", "Redis URL")
	gameID := flag.String("game", "", "game id")
	playerID := flag.String("player", "", "player id")
	promptID := flag.String("prompt", "", "prompt id from the delivered message")
	label := flag.String("label", "", "choice label")
	flag.Parse()

	id, err := uuid.Parse(*gameID)
	if err != nil {
		log.Fatal("Invalid game id:", err)
	}
	req := queuePkg.NewRequest(id, *playerID, *promptID, *label)
	if err := req.Validate(); err != nil {
		log.Fatal("Invalid request:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := queue.NewClient(ctx, *redisURL, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer client.Close()

	choices := queue.NewChoiceQueue(client)
	if err := choices.Enqueue(ctx, req); err != nil {
		log.Fatal("Failed to enqueue request:", err)
	}
	fmt.Printf("Enqueued choice request: %s\n", req.RequestID)

	depth, err := choices.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}
	fmt.Printf("Queue depth: %d\n", depth)
}
