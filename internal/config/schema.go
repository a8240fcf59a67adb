// Package config provides typed, validated configuration for the daemon.
// Configuration resolution order (highest priority first):
// 1. Command-line flags
// 2. Environment variables (WORKFLOWD_*)
// 3. Defaults
package config

// Config is the top-level configuration structure.
type Config struct {
	// DBPath is the sqlite database file location.
	DBPath string `json:"db_path" env:"WORKFLOWD_DB_PATH" default:"./workflowd.db"`

	// DataRoot is the root directory under which per-session workspaces and
	// artifacts are stored.
	DataRoot string `json:"data_root" env:"WORKFLOWD_DATA_ROOT" default:"./data"`

	// Host is the HTTP listen address.
	Host string `json:"host" env:"WORKFLOWD_HOST" default:"127.0.0.1"`

	// Port is the HTTP listen port.
	Port int `json:"port" env:"WORKFLOWD_PORT" default:"8080"`

	// Reload, if true, only adds a boot log line. The default tool registry
	// is seeded on every boot whether or not it is set; seeding inserts
	// missing entries and leaves existing ones unchanged.
	Reload bool `json:"reload" env:"WORKFLOWD_RELOAD" default:"false"`

	// LogLevel is the minimum log level.
	LogLevel string `json:"log_level" env:"WORKFLOWD_LOG_LEVEL" default:"info"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DBPath:   "./workflowd.db",
		DataRoot: "./data",
		Host:     "127.0.0.1",
		Port:     8080,
		Reload:   false,
		LogLevel: "info",
	}
}
