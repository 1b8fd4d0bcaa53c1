// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service.
type Config struct {
	Port            int           `env:"SERVER_PORT" envDefault:"8041"`
	DBPath          string        `env:"DB_PATH" envDefault:"data/users.db"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"text"`
	}

	// UsersNumber is the population seeded into an empty store at startup.
	UsersNumber int `env:"USERS_NUMBER" envDefault:"100"`

	Churn struct {
		Enabled  bool          `env:"CHURN_ENABLED" envDefault:"true"`
		Interval time.Duration `env:"CHURN_INTERVAL" envDefault:"5m"`
	}

	Search struct {
		DefaultLimit int `env:"SEARCH_DEFAULT_LIMIT" envDefault:"100"`
		MaxLimit     int `env:"SEARCH_MAX_LIMIT" envDefault:"1000"`
	}

	// GeneratorSeed fixes the synthetic data stream; 0 seeds from the clock.
	GeneratorSeed uint64 `env:"GENERATOR_SEED" envDefault:"0"`
}

// Load reads a .env file when present, then parses the environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config: loading .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d is out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.UsersNumber < 0 {
		errs = append(errs, fmt.Errorf("USERS_NUMBER must not be negative, got %d", c.UsersNumber))
	}
	if c.Churn.Interval <= 0 {
		errs = append(errs, fmt.Errorf("CHURN_INTERVAL must be positive, got %s", c.Churn.Interval))
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit <= 0 {
		errs = append(errs, errors.New("SEARCH_DEFAULT_LIMIT and SEARCH_MAX_LIMIT must be positive"))
	} else if c.Search.DefaultLimit > c.Search.MaxLimit {
		errs = append(errs, fmt.Errorf("SEARCH_DEFAULT_LIMIT %d exceeds SEARCH_MAX_LIMIT %d",
			c.Search.DefaultLimit, c.Search.MaxLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
