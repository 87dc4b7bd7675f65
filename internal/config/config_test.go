package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquagraph/aquagraph/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.ArchiveClient("").WorstCase())
	assert.Equal(t, "DZ", cfg.Geo.Country)
	assert.Equal(t, "https://archive-api.open-meteo.com", cfg.Archive.BaseURL)
	assert.Equal(t, "Europe/London", cfg.Archive.Timezone)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTTL)
	assert.False(t, cfg.Form.StrictCoordinates)
	assert.False(t, cfg.PubSubEnabled())
	assert.True(t, cfg.UsesDevSigningKey())
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AQUAGRAPH_SERVER_PORT", "9090")
	t.Setenv("AQUAGRAPH_FORM_STRICT_COORDINATES", "true")
	t.Setenv("AQUAGRAPH_GEO_COUNTRY", "dz")
	t.Setenv("AQUAGRAPH_LOG_LEVEL", "debug")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Form.StrictCoordinates)
	assert.Equal(t, "DZ", cfg.Geo.Country)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	yaml := `
locale: en
archive:
  timezone: Africa/Algiers
cache:
  ttl: 1h
prefetch:
  enabled: true
  days: 14
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "Africa/Algiers", cfg.Archive.Timezone)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.True(t, cfg.Prefetch.Enabled)
	assert.Equal(t, 14, cfg.Prefetch.Days)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg, err := config.Load(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port out of range", func(c *config.Config) { c.Server.Port = 70000 }},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "loud" }},
		{"bad country", func(c *config.Config) { c.Geo.Country = "DZA" }},
		{"bad timezone", func(c *config.Config) { c.Archive.Timezone = "Mars/Olympus" }},
		{"negative retries", func(c *config.Config) { c.Archive.MaxRetries = -1 }},
		{"write timeout below retry budget", func(c *config.Config) { c.Server.WriteTimeout = 30 * time.Second }},
		{"retries outgrow write timeout", func(c *config.Config) { c.Archive.MaxRetries = 5 }},
		{"half pubsub", func(c *config.Config) { c.PubSub.ProjectID = "proj" }},
		{"prefetch days", func(c *config.Config) {
			c.Prefetch.Enabled = true
			c.Prefetch.Days = 0
		}},
		{"production without key", func(c *config.Config) {
			c.Environment = "production"
			c.Auth.SigningKey = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
