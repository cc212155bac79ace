package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from environment variables.
type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	DBType         string        `env:"DB_TYPE" envDefault:"memory"`
	DatabaseURL    string        `env:"DATABASE_URL" envDefault:"host=localhost user=mazebound password=mazebound dbname=mazebound sslmode=disable"`
	CommandTimeout time.Duration `env:"COMMAND_TIMEOUT" envDefault:"5s"`
	LogLevel       slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
