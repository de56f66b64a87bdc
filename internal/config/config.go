// Package config loads runtime configuration from the environment and an
// optional .env file via Viper.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config contains runtime configuration required by the service.
type Config struct {
	// HTTPAddr is the listen address for the API server.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the document store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// APIKey is the shared bearer secret every request must present.
	APIKey string `mapstructure:"API_KEY"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is json or console.
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load reads .env if present, then the environment. Env vars override .env.
// Fails if a required value is missing.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine (e.g. in CI)

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("API_KEY", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("config: DATABASE_URL must be set")
	}
	if cfg.APIKey == "" {
		return Config{}, errors.New("config: API_KEY must be set")
	}
	return cfg, nil
}
