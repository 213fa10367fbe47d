package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variable names for overrides.
const (
	EnvConfig  = "IDROPLINK_CONFIG"
	EnvBaseURL = "IDROPLINK_BASE_URL"
)

// Load reads and parses a TOML config file and validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values. This supports the
// zero-config first-run experience.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration with the override chain applied:
// defaults -> config file -> environment variables.
// The config path itself resolves as: explicit argument > env > default.
// A missing file at the default location means zero-config defaults; a
// missing file at an explicitly named location is an error, so a typo in
// --config or the env var does not silently run with defaults.
func Resolve(path string) (*Config, error) {
	cfgPath := DefaultConfigPath()
	explicit := false

	if env := os.Getenv(EnvConfig); env != "" {
		cfgPath = env
		explicit = true
	}

	if path != "" {
		cfgPath = path
		explicit = true
	}

	var (
		cfg *Config
		err error
	)

	if explicit {
		cfg, err = Load(cfgPath)
	} else {
		cfg, err = LoadOrDefault(cfgPath)
	}

	if err != nil {
		return nil, err
	}

	if env := os.Getenv(EnvBaseURL); env != "" {
		cfg.API.BaseURL = env
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks a Config for values that would break at runtime.
func Validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}

	parsed, err := url.Parse(cfg.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url %q is not a valid URL", cfg.API.BaseURL)
	}

	if cfg.Secrets.Service == "" {
		return errors.New("secrets.service must not be empty")
	}

	if cfg.Watch.Settle != "" {
		if _, err := time.ParseDuration(cfg.Watch.Settle); err != nil {
			return fmt.Errorf("watch.settle %q is not a duration: %w", cfg.Watch.Settle, err)
		}
	}

	if cfg.Watch.Parallel < 0 {
		return errors.New("watch.parallel must not be negative")
	}

	return nil
}

// SettleDuration returns the parsed watch settle interval.
// Validate has already guaranteed it parses.
func (w WatchConfig) SettleDuration() time.Duration {
	if w.Settle == "" {
		return 0
	}

	d, err := time.ParseDuration(w.Settle)
	if err != nil {
		return 0
	}

	return d
}
