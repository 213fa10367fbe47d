// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for idroplink-go. Layering is
// defaults -> config file -> environment variables; CLI flags are applied
// by the command layer on top.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Secrets SecretsConfig `toml:"secrets"`
	History HistoryConfig `toml:"history"`
	Logging LoggingConfig `toml:"logging"`
	Watch   WatchConfig   `toml:"watch"`
}

// APIConfig selects the backend to talk to. Deployments running their own
// idrop.link copy point base_url at it.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

// SecretsConfig controls where the credential store file lives.
type SecretsConfig struct {
	Dir     string `toml:"dir"`
	Service string `toml:"service"`
}

// HistoryConfig controls the local drop cache database.
type HistoryConfig struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel string `toml:"log_level"`
}

// WatchConfig controls the screenshot auto-upload watcher. Files created
// in dir whose names match a prefix and extension are uploaded.
type WatchConfig struct {
	Dir        string   `toml:"dir"`
	Prefixes   []string `toml:"prefixes"`
	Extensions []string `toml:"extensions"`
	Settle     string   `toml:"settle"`
	Parallel   int      `toml:"parallel"`
}
