// Package config loads runtime configuration for the SanderCoin CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c, -config or SANDERCOIN_CONFIG.
//  3. SANDERCOIN_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:5179/api",
//	  "database_path": "sandercoin.db",
//	  "token_refresh_interval": "1m",
//	  "request_timeout": "10s",
//	  "requests_per_second": 10,
//	  "log_level": "info",
//	  "log_format": "text"
//	}
package config
