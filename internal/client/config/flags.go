package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sandercoin/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the exchange API
//	-d string   path of the local SQLite database
//	-i int      token value refresh interval in seconds
//	-l string   log level
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the exchange API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	refreshInterval := fs.Int("i", int(cfg.TokenRefreshInterval.Seconds()), "token value refresh interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.TokenRefreshInterval = time.Duration(*refreshInterval) * time.Second
}
