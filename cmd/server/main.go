package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jwebster45206/defcon/internal/characters"
	"github.com/jwebster45206/defcon/internal/config"
	"github.com/jwebster45206/defcon/internal/handlers"
	"github.com/jwebster45206/defcon/internal/loader"
	"github.com/jwebster45206/defcon/internal/logger"
	"github.com/jwebster45206/defcon/internal/middleware"
	"github.com/jwebster45206/defcon/internal/services/events"
	"github.com/jwebster45206/defcon/internal/services/queue"
	"github.com/jwebster45206/defcon/internal/worker"
	"github.com/jwebster45206/defcon/pkg/game"
)

func main() {
	dev := flag.Bool("dev", false, "developer mode: debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *dev {
		cfg.Dev = true
	}
	if cfg.Dev {
		cfg.LogLevel = slog.LevelDebug
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg)

	log.Info("Starting defcon server",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"dev", cfg.Dev,
		"duration_unit", cfg.DurationUnit,
		"interval_unit", cfg.IntervalUnit)

	units, err := loader.Discover(cfg.ContentDir)
	if err != nil {
		log.Warn("Content directory unavailable, using built-in characters only",
			"dir", cfg.ContentDir,
			"error", err)
	}
	actors, failures := loader.Load(log, units...)
	if actors.Len() == 0 {
		log.Error("No characters could be loaded", "failed", len(failures))
		os.Exit(1)
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	queueClient, err := queue.NewClient(connectCtx, cfg.RedisURL, log)
	connectCancel()
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing Redis client", "error", err)
		}
	}()

	broadcaster := events.NewBroadcaster(queueClient.Redis(), log)
	choices := queue.NewChoiceQueue(queueClient)

	manager := game.NewManager(actors, broadcaster, log,
		game.WithUnits(cfg.DurationUnit, cfg.IntervalUnit))

	w := worker.New(choices, manager, broadcaster, log, os.Getenv("WORKER_ID"), cfg.DequeueTimeout)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("GET /health", handlers.NewHealthHandler(queueClient, manager, actors.Len(), log))
	handlers.NewGameHandler(manager, choices, broadcaster, log).Register(mux)
	handlers.NewEventsHandler(broadcaster, log).Register(mux)

	handler := middleware.Logger(log, middleware.RequireToken(cfg.Token, mux, "/health"))
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	w.Stop()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("Worker did not stop in time")
	}

	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.Error("Games did not stop cleanly", "error", err)
	}

	log.Info("Server exited")
}
