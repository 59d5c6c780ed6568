package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DoyleJ11/brawlbracket-backend/internal/engine"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	ServerPort     int
	DatabaseURL    string // empty disables persistence
	AppEnv         string
	DefaultRuleset string
	DefaultBestOf  int
	CORSOrigins    []string
	OutboxSize     int
}

func (c *Config) Development() bool { return c.AppEnv == "development" }

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.ServerPort) }

// Load reads an optional .env file and then the environment. Every invalid
// value is reported, not just the first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs error
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AppEnv:         getOr("APP_ENV", "production"),
		DefaultRuleset: getOr("DEFAULT_RULESET", "basic"),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	if cfg.ServerPort, err = intVar("SERVER_PORT", 8080); err != nil {
		errs = multierr.Append(errs, err)
	} else if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort))
	}

	if cfg.DefaultBestOf, err = intVar("DEFAULT_BEST_OF", 3); err != nil {
		errs = multierr.Append(errs, err)
	} else if cfg.DefaultBestOf < 1 || cfg.DefaultBestOf%2 == 0 {
		errs = multierr.Append(errs, fmt.Errorf("DEFAULT_BEST_OF must be odd and at least 1, got %d", cfg.DefaultBestOf))
	}

	if cfg.OutboxSize, err = intVar("OUTBOX_SIZE", 16); err != nil {
		errs = multierr.Append(errs, err)
	} else if cfg.OutboxSize < 1 {
		errs = multierr.Append(errs, fmt.Errorf("OUTBOX_SIZE must be positive, got %d", cfg.OutboxSize))
	}

	if _, err := engine.Lookup(cfg.DefaultRuleset); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("DEFAULT_RULESET: %w", err))
	}

	if errs != nil {
		return nil, errs
	}
	return cfg, nil
}

func getOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intVar(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
