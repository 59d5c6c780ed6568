package config

import (
	"testing"

	"github.com/DoyleJ11/brawlbracket-backend/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DATABASE_URL", "APP_ENV", "DEFAULT_RULESET", "DEFAULT_BEST_OF", "CORS_ORIGINS", "OUTBOX_SIZE"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		ServerPort:     8080,
		AppEnv:         "production",
		DefaultRuleset: "basic",
		DefaultBestOf:  3,
		OutboxSize:     16,
	}, cfg)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.False(t, cfg.Development())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/bracket")
	t.Setenv("APP_ENV", "development")
	t.Setenv("DEFAULT_RULESET", "esl")
	t.Setenv("DEFAULT_BEST_OF", "5")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://bracket.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "postgres://localhost/bracket", cfg.DatabaseURL)
	assert.True(t, cfg.Development())
	assert.Equal(t, "esl", cfg.DefaultRuleset)
	assert.Equal(t, 5, cfg.DefaultBestOf)
	assert.Equal(t, []string{"http://localhost:3000", "https://bracket.example"}, cfg.CORSOrigins)
}

func TestLoad_ReportsEveryInvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("DEFAULT_BEST_OF", "4")
	t.Setenv("OUTBOX_SIZE", "0")
	t.Setenv("DEFAULT_RULESET", "fearless")

	_, err := Load()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.ErrorIs(t, err, engine.ErrUnknownRuleset)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "DEFAULT_BEST_OF")
}
