package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv(TokenVar, "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.DurationUnit)
	assert.Equal(t, time.Second, cfg.IntervalUnit)
	assert.False(t, cfg.IsProduction())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv(TokenVar, "secret")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GAME_DURATION_UNIT", "2s")
	t.Setenv("GAME_INTERVAL_UNIT", "50ms")
	t.Setenv("DEV", "true")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Token)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.DurationUnit)
	assert.Equal(t, 50*time.Millisecond, cfg.IntervalUnit)
	assert.True(t, cfg.Dev)
	assert.NoError(t, cfg.Validate())
}

func TestParse_BadDuration(t *testing.T) {
	t.Setenv("GAME_DURATION_UNIT", "soon")
	_, err := Parse()
	assert.Error(t, err)
}

func TestValidate_MissingToken(t *testing.T) {
	t.Setenv(TokenVar, "")
	cfg, err := Parse()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingToken))
	assert.Contains(t, err.Error(), TokenVar)
	assert.Contains(t, err.Error(), ".env")
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9191\n"), 0o600))

	t.Chdir(dir)

	// t.Setenv records the old value so PORT is restored after godotenv sets it
	t.Setenv("PORT", "")
	require.NoError(t, os.Unsetenv("PORT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Port)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}
