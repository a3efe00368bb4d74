// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port   int    `env:"BANDMATES_PORT"    envDefault:"8080"`
	DBPath string `env:"BANDMATES_DB_PATH" envDefault:"./data/bandmates.db"`

	JWTSecret string        `env:"BANDMATES_JWT_SECRET"`
	TokenTTL  time.Duration `env:"BANDMATES_TOKEN_TTL"  envDefault:"24h"`

	// AMQPURL selects the RabbitMQ push channel; empty logs pushes instead.
	AMQPURL      string `env:"BANDMATES_AMQP_URL"`
	PushQueue    string `env:"BANDMATES_PUSH_QUEUE"    envDefault:"push.devices"`
	PushExchange string `env:"BANDMATES_PUSH_EXCHANGE" envDefault:"push.topics"`

	// Moderators are the profile handles allowed to resolve philanthropist requests.
	Moderators []string `env:"BANDMATES_MODERATORS" envSeparator:","`

	NotifyTimeout time.Duration `env:"BANDMATES_NOTIFY_TIMEOUT" envDefault:"30s"`
	MetricsPath   string        `env:"BANDMATES_METRICS_PATH"   envDefault:"/metrics"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.JWTSecret == "" {
		return errors.New("BANDMATES_JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid token TTL %s", c.TokenTTL)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}
