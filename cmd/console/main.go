package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	_ "github.com/jwebster45206/defcon/internal/characters"
	"github.com/jwebster45206/defcon/internal/config"
	"github.com/jwebster45206/defcon/internal/loader"
	"github.com/jwebster45206/defcon/pkg/game"
)

func main() {
	playerID := flag.String("player", "local", "player id to play as")
	seed := flag.Uint64("seed", 0, "random seed (0 picks one)")
	duration := flag.Float64("duration", 0, "game length in duration units (0 samples one)")
	fast := flag.Bool("fast", false, "shrink time units so a game lasts about a minute")
	logPath := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := consoleLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	units, err := loader.Discover(cfg.ContentDir)
	if err != nil {
		log.Warn("Content directory unavailable", "dir", cfg.ContentDir, "error", err)
	}
	actors, failures := loader.Load(log, units...)
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "warning: %v\n", f)
	}
	if actors.Len() == 0 {
		fmt.Fprintf(os.Stderr, "No characters could be loaded from %s\n", cfg.ContentDir)
		os.Exit(1)
	}

	opts := []game.Option{game.WithUnits(cfg.DurationUnit, cfg.IntervalUnit)}
	if *fast {
		opts = []game.Option{game.WithUnits(5*time.Second, 100*time.Millisecond)}
	}
	if *seed != 0 {
		opts = append(opts, game.WithSeed(*seed))
	}
	if *duration != 0 {
		opts = append(opts, game.WithDuration(*duration))
	}

	delivery := newChannelDelivery(*playerID)
	g, err := game.New(uuid.New(), actors, delivery, log, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create game: %v\n", err)
		os.Exit(1)
	}
	if _, err := g.AddPlayer(*playerID); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to join game: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx)
	}()

	p := tea.NewProgram(NewConsoleUI(ctx, g, *playerID, delivery.inbox, done),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// consoleLogger keeps logs off the terminal the UI draws on.
func consoleLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, func() { _ = f.Close() }, nil
}
