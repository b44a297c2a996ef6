package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Token        string        `env:"TOKEN"`
	AllowedUsers []int64       `env:"ALLOWED_USERS"`
	DBPath       string        `env:"DB_PATH"        envDefault:"db.sqlite"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	APIURL       string        `env:"API_URL"        envDefault:"http://localhost:8000"`
	APITimeout   time.Duration `env:"API_TIMEOUT"    envDefault:"20s"`
	Timezone     string        `env:"TIMEZONE"       envDefault:"UTC"`
	InsightsDays int           `env:"INSIGHTS_DAYS"  envDefault:"7"`
}

// Load reads the environment. TOKEN is checked by RequireToken because only
// the bot needs it.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.InsightsDays < 1 {
		return Config{}, fmt.Errorf("INSIGHTS_DAYS must be positive, got %d", cfg.InsightsDays)
	}

	if _, err = cfg.Location(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) RequireToken() error {
	if c.Token == "" {
		return errors.New("TOKEN is required")
	}

	return nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", c.Timezone, err)
	}

	return loc, nil
}
