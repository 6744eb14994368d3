// Package config loads runtime configuration shared by the game server and
// bridge binaries from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting either binary needs. Each binary only reads
// the fields relevant to it.
type Config struct {
	TCPHost string `env:"TCP_HOST" envDefault:"127.0.0.1"`
	TCPPort int    `env:"TCP_PORT" envDefault:"4000"`

	HTTPAddr string `env:"PORT" envDefault:":8080"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	DBPath    string `env:"DB_PATH" envDefault:"data/users.db"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads a local .env file if present, then parses the process
// environment into a Config. A missing .env is not an error — real
// deployments set the environment directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
