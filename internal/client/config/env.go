package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env"
)

// envConfig mirrors Config for environment lookups. Values are kept as
// strings so an unset variable can be told apart from a zero value.
type envConfig struct {
	ServerURL            string `env:"SANDERCOIN_SERVER_URL"`
	DatabasePath         string `env:"SANDERCOIN_DATABASE_PATH"`
	TokenRefreshInterval string `env:"SANDERCOIN_TOKEN_REFRESH_INTERVAL"`
	RequestTimeout       string `env:"SANDERCOIN_REQUEST_TIMEOUT"`
	RequestsPerSecond    string `env:"SANDERCOIN_REQUESTS_PER_SECOND"`
	LogLevel             string `env:"SANDERCOIN_LOG_LEVEL"`
	LogFormat            string `env:"SANDERCOIN_LOG_FORMAT"`
}

// parseEnv overlays Config with SANDERCOIN_* environment variables.
// Malformed values panic, matching the JSON loader.
func parseEnv(cfg *Config) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		panic(fmt.Sprintf("failed to parse environment: %s", err.Error()))
	}

	if ec.ServerURL != "" {
		cfg.ServerURL = ec.ServerURL
	}
	if ec.DatabasePath != "" {
		cfg.DatabasePath = ec.DatabasePath
	}
	if ec.TokenRefreshInterval != "" {
		cfg.TokenRefreshInterval = mustDuration("SANDERCOIN_TOKEN_REFRESH_INTERVAL", ec.TokenRefreshInterval)
	}
	if ec.RequestTimeout != "" {
		cfg.RequestTimeout = mustDuration("SANDERCOIN_REQUEST_TIMEOUT", ec.RequestTimeout)
	}
	if ec.RequestsPerSecond != "" {
		rps, err := strconv.ParseFloat(ec.RequestsPerSecond, 64)
		if err != nil {
			panic(fmt.Sprintf("SANDERCOIN_REQUESTS_PER_SECOND: %s", err.Error()))
		}
		cfg.RequestsPerSecond = rps
	}
	if ec.LogLevel != "" {
		cfg.LogLevel = ec.LogLevel
	}
	if ec.LogFormat != "" {
		cfg.LogFormat = ec.LogFormat
	}
}

func mustDuration(name, value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("%s: %s", name, err.Error()))
	}
	return d
}
