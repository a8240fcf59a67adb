package config

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

// Load resolves configuration from defaults, environment variables, and
// command-line flags, in ascending priority, then validates the result.
func Load(args []string) (*Config, error) {
	cfg := Default()
	loadFromEnv(cfg)

	fs := pflag.NewFlagSet("workflowd", pflag.ContinueOnError)
	dbPath := fs.String("db-path", cfg.DBPath, "path to the sqlite database file")
	dataRoot := fs.String("data-root", cfg.DataRoot, "root directory for session workspaces and artifacts")
	host := fs.String("host", cfg.Host, "HTTP listen address")
	port := fs.Int("port", cfg.Port, "HTTP listen port")
	reload := fs.Bool("reload", cfg.Reload, "log that the default tool registry was re-checked on boot (seeding runs on every boot)")
	logLevel := fs.String("log-level", cfg.LogLevel, "minimum log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.DBPath = *dbPath
	cfg.DataRoot = *dataRoot
	cfg.Host = *host
	cfg.Port = *port
	cfg.Reload = *reload
	cfg.LogLevel = *logLevel

	result := cfg.Validate()
	if !result.Valid() {
		return nil, &ValidationErr{Result: result}
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("WORKFLOWD_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WORKFLOWD_DATA_ROOT"); v != "" {
		cfg.DataRoot = v
	}
	if v := os.Getenv("WORKFLOWD_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("WORKFLOWD_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("WORKFLOWD_RELOAD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Reload = b
		}
	}
	if v := os.Getenv("WORKFLOWD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
