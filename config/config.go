package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret   string `env:"JWT_SECRET,required"    validate:"required,min=32"`
	TokenEncKey string `env:"TOKEN_ENC_KEY,required" validate:"required,hexadecimal,len=64"`

	DexcomClientID     string `env:"DEXCOM_CLIENT_ID,required"     validate:"required"`
	DexcomClientSecret string `env:"DEXCOM_CLIENT_SECRET,required" validate:"required"`
	DexcomRedirectURL  string `env:"DEXCOM_REDIRECT_URL,required"  validate:"required,url"`
	DexcomBaseURL      string `env:"DEXCOM_BASE_URL"               validate:"omitempty,url"`

	RefreshCron         string `env:"REFRESH_CRON" envDefault:"*/15 * * * *" validate:"required"`
	RefreshThresholdMin int    `env:"REFRESH_THRESHOLD_MIN" envDefault:"60" validate:"min=1,max=1440"`

	ResendAPIKey string `env:"RESEND_API_KEY"    validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"       validate:"required_if=Env production,required_if=Env staging"`
	SignInBase   string `env:"SIGN_IN_BASE_URL"  envDefault:"http://localhost:8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// TokenEncKeyBytes decodes the hex-encoded 32-byte master key.
func (c *Config) TokenEncKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.TokenEncKey)
	if err != nil {
		return nil, fmt.Errorf("decode TOKEN_ENC_KEY: %w", err)
	}
	return key, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
