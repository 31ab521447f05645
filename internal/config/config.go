package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, read from environment variables. main
// loads an optional .env file before parsing.
type Config struct {
	Addr         string `env:"CANCHA_ADDR"      envDefault:":8080"`
	BaseURL      string `env:"CANCHA_BASE_URL"  envDefault:"http://localhost:8080"`
	DatabasePath string `env:"CANCHA_DB_PATH"   envDefault:"cancha.db"`
	LogLevel     string `env:"CANCHA_LOG_LEVEL" envDefault:"info"`
	Dev          bool   `env:"CANCHA_DEV"       envDefault:"false"`

	SessionLifetime time.Duration `env:"CANCHA_SESSION_LIFETIME" envDefault:"24h"`

	// How close to kickoff players can still join or bail out.
	RegistrationCutoff time.Duration `env:"CANCHA_REGISTRATION_CUTOFF" envDefault:"2h"`
	CancellationCutoff time.Duration `env:"CANCHA_CANCELLATION_CUTOFF" envDefault:"2h"`

	// Empty RedisAddr keeps rate limiting in-process.
	RedisAddr       string        `env:"CANCHA_REDIS_ADDR"`
	RateLimit       int           `env:"CANCHA_RATE_LIMIT"        envDefault:"30"`
	RateLimitWindow time.Duration `env:"CANCHA_RATE_LIMIT_WINDOW" envDefault:"1m"`

	NotifyDispatchSpec string `env:"CANCHA_NOTIFY_CRON" envDefault:"@every 1m"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
