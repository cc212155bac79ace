package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DBType)
	assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "host=db user=u dbname=d")
	t.Setenv("COMMAND_TIMEOUT", "250ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "host=db user=u dbname=d", cfg.DatabaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.CommandTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}
