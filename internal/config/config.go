package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// TokenVar is the environment variable holding the bot token.
const TokenVar = "DEFCON_BOT_TOKEN"

var ErrMissingToken = errors.New("missing " + TokenVar + ": set it in the environment or in a .env file")

type Config struct {
	Token          string        `env:"DEFCON_BOT_TOKEN"`
	Port           string        `env:"PORT" envDefault:"8080"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName   string        `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	ContentDir     string        `env:"CONTENT_DIR" envDefault:"data/characters"`
	DurationUnit   time.Duration `env:"GAME_DURATION_UNIT" envDefault:"1m"`
	IntervalUnit   time.Duration `env:"GAME_INTERVAL_UNIT" envDefault:"1s"`
	DequeueTimeout time.Duration `env:"CHOICE_DEQUEUE_TIMEOUT" envDefault:"5s"`
	Dev            bool          `env:"DEV"`

	LogLevel slog.Level `env:"-"`
}

// Load reads the process environment, after merging a .env file from the
// working directory when one exists. Variables already set win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return &cfg, nil
}

// Validate reports the settings the server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, ErrMissingToken)
	}
	if c.DurationUnit <= 0 {
		errs = append(errs, fmt.Errorf("GAME_DURATION_UNIT must be positive, got %s", c.DurationUnit))
	}
	if c.IntervalUnit <= 0 {
		errs = append(errs, fmt.Errorf("GAME_INTERVAL_UNIT must be positive, got %s", c.IntervalUnit))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
