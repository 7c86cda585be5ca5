package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sandercoin/internal/flagx"
	"github.com/dmitrijs2005/sandercoin/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Intervals use timex.Duration so they can be written as "1m" or as
// integer nanoseconds.
type JsonConfig struct {
	ServerURL            string         `json:"server_url"`
	DatabasePath         string         `json:"database_path"`
	TokenRefreshInterval timex.Duration `json:"token_refresh_interval"`
	RequestTimeout       timex.Duration `json:"request_timeout"`
	RequestsPerSecond    *float64       `json:"requests_per_second"`
	LogLevel             string         `json:"log_level"`
	LogFormat            string         `json:"log_format"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// -c, -config or $SANDERCOIN_CONFIG. Only fields present in the file are copied. Read or decode
// errors panic; the caller decides whether to recover.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.TokenRefreshInterval.Duration > 0 {
		cfg.TokenRefreshInterval = jc.TokenRefreshInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *jc.RequestsPerSecond
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
}
