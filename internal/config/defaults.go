package config

import "path/filepath"

// Default values for configuration options. Chosen so the tool works
// without any config file at all.
const (
	defaultBaseURL       = "http://www.idrop.link/api/v1"
	defaultService       = "de.andinfinity.idrop.link"
	defaultLogLevel      = "info"
	defaultWatchSettle   = "2s"
	defaultWatchParallel = 2
	historyFileName      = "drops.db"
)

// defaultWatchPrefixes match macOS screenshot names in the common locales
// the original app shipped for.
func defaultWatchPrefixes() []string {
	return []string{"Screenshot", "Screen Shot", "Bildschirmfoto"}
}

func defaultWatchExtensions() []string {
	return []string{".png"}
}

// DefaultConfig returns a Config populated with all default values.
// Used as the starting point for TOML decoding, so unset fields retain
// defaults, and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{BaseURL: defaultBaseURL},
		Secrets: SecretsConfig{
			Dir:     DefaultDataDir(),
			Service: defaultService,
		},
		History: HistoryConfig{
			Path:    filepath.Join(DefaultDataDir(), historyFileName),
			Enabled: true,
		},
		Logging: LoggingConfig{LogLevel: defaultLogLevel},
		Watch: WatchConfig{
			Dir:        defaultWatchDir(),
			Prefixes:   defaultWatchPrefixes(),
			Extensions: defaultWatchExtensions(),
			Settle:     defaultWatchSettle,
			Parallel:   defaultWatchParallel,
		},
	}
}
