package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends selectable with STORE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"web"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DBPath       string `env:"DB_PATH" envDefault:"data/twitter2.db"`
	PostgresURL  string `env:"POSTGRES_URL"`
	RedisURL     string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix  string `env:"REDIS_PREFIX" envDefault:"twitter2:"`

	SaveKey    string `env:"SAVE_KEY" envDefault:"nathansTwitter2Save_v1.5"`
	ThemeKey   string `env:"THEME_KEY" envDefault:"theme"`
	WelcomeKey string `env:"WELCOME_KEY" envDefault:"nathansTwitterWelcome_v1"`

	TweetsPath       string        `env:"TWEETS_PATH" envDefault:"NathanTweets.txt"`
	BalanceFile      string        `env:"BALANCE_FILE"`
	TickInterval     time.Duration `env:"TICK_INTERVAL" envDefault:"50ms"`
	AutosaveInterval time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"15s"`
	BlockCost        float64       `env:"BLOCK_COST" envDefault:"10000"`
	RandomSeed       uint64        `env:"RANDOM_SEED" envDefault:"0"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("STORE_BACKEND=postgres needs POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.TickInterval <= 0 || c.AutosaveInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL and AUTOSAVE_INTERVAL must be positive")
	}
	if c.BlockCost < 0 {
		return fmt.Errorf("BLOCK_COST must not be negative")
	}
	return nil
}
