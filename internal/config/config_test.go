package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://www.idrop.link/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "de.andinfinity.idrop.link", cfg.Secrets.Service)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.True(t, cfg.History.Enabled)
	assert.Contains(t, cfg.Watch.Prefixes, "Screenshot")
	assert.Contains(t, cfg.Watch.Extensions, ".png")
	assert.Equal(t, 2*time.Second, cfg.Watch.SettleDuration())

	require.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[api]
base_url = "http://localhost:3000/api/v1"

[logging]
log_level = "debug"

[watch]
dir = "/tmp/shots"
settle = "500ms"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "/tmp/shots", cfg.Watch.Dir)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.SettleDuration())

	// Unset fields keep their defaults.
	assert.Equal(t, "de.andinfinity.idrop.link", cfg.Secrets.Service)
	assert.Contains(t, cfg.Watch.Prefixes, "Bildschirmfoto")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_BadTOML(t *testing.T) {
	path := writeConfig(t, "this is not toml = [")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[api]
base_url = "http://from-file:3000/api/v1"
`)

	t.Setenv(EnvConfig, path)
	t.Setenv(EnvBaseURL, "http://from-env:4000/api/v1")

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:4000/api/v1", cfg.API.BaseURL)
}

func TestResolve_ExplicitPathWinsOverEnv(t *testing.T) {
	envPath := writeConfig(t, `
[api]
base_url = "http://from-env-file:3000/api/v1"
`)
	flagPath := writeConfig(t, `
[api]
base_url = "http://from-flag-file:3000/api/v1"
`)

	t.Setenv(EnvConfig, envPath)

	cfg, err := Resolve(flagPath)
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag-file:3000/api/v1", cfg.API.BaseURL)
}

func TestResolve_MissingExplicitPath(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "typo.toml"))
	assert.Error(t, err, "a named config file that does not exist must not fall back to defaults")
}

func TestResolve_MissingEnvPath(t *testing.T) {
	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "typo.toml"))

	_, err := Resolve("")
	assert.Error(t, err)
}

func TestResolve_MissingDefaultPathUsesDefaults(t *testing.T) {
	// Point the default config location at an empty directory.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().API.BaseURL, cfg.API.BaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, true},
		{"relative base url", func(c *Config) { c.API.BaseURL = "not-a-url" }, true},
		{"empty service", func(c *Config) { c.Secrets.Service = "" }, true},
		{"bad settle", func(c *Config) { c.Watch.Settle = "soon" }, true},
		{"empty settle ok", func(c *Config) { c.Watch.Settle = "" }, false},
		{"negative parallel", func(c *Config) { c.Watch.Parallel = -1 }, true},
		{"zero parallel ok", func(c *Config) { c.Watch.Parallel = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultPaths(t *testing.T) {
	assert.NotEmpty(t, DefaultConfigDir())
	assert.NotEmpty(t, DefaultDataDir())
	assert.True(t, filepath.IsAbs(DefaultConfigPath()))
}
