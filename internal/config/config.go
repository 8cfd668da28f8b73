package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/bingohall.db"`
	LogLevel      slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	AdminEmail    string        `env:"ADMIN_EMAIL" envDefault:"admin@bingohall.local"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:""`
	ScheduleTick  time.Duration `env:"SCHEDULE_TICK" envDefault:"15s"`
	PresenceTTL   time.Duration `env:"PRESENCE_TTL" envDefault:"90s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
