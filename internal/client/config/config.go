package config

import "time"

// Config holds runtime settings for the SanderCoin CLI.
//
// Fields:
//   - ServerURL: base URL of the exchange REST API (including the /api prefix).
//   - DatabasePath: SQLite file holding the persisted credential.
//   - TokenRefreshInterval: how often the token value is re-fetched.
//   - RequestTimeout: per-request HTTP timeout.
//   - RequestsPerSecond: outbound request rate limit (0 disables limiting).
//   - LogLevel, LogFormat: see logging.New.
type Config struct {
	ServerURL            string
	DatabasePath         string
	TokenRefreshInterval time.Duration
	RequestTimeout       time.Duration
	RequestsPerSecond    float64
	LogLevel             string
	LogFormat            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5179/api"
	c.DatabasePath = "sandercoin.db"
	c.TokenRefreshInterval = time.Minute
	c.RequestTimeout = 10 * time.Second
	c.RequestsPerSecond = 10
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
