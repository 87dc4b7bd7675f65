// Package config loads AquaGraph's configuration from an optional YAML
// file, a .env file and AQUAGRAPH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kkyr/fig"
	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/provider/resilience"
)

const (
	configEnv = "AQUAGRAPH"

	// DefaultFile is looked up in the working directory.
	DefaultFile = "aquagraph.yaml"

	devSigningKey = "local-dev-signing-key-change-in-production"
)

// Config represents the application's configuration structure.
type Config struct {
	Environment string `fig:"environment" default:"development"`

	Server struct {
		Port            int           `fig:"port" default:"8080"`
		ReadTimeout     time.Duration `fig:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `fig:"write_timeout" default:"45s"`
		IdleTimeout     time.Duration `fig:"idle_timeout" default:"60s"`
		ShutdownTimeout time.Duration `fig:"shutdown_timeout" default:"30s"`
		// RequireTLS rejects plain HTTP requests outside development.
		RequireTLS bool `fig:"require_tls"`
	} `fig:"server"`

	Log struct {
		// Allowed values: trace, debug, info, warn, error
		Level  string `fig:"level" default:"info"`
		Pretty bool   `fig:"pretty"`
	} `fig:"log"`

	// Locale is the default page language. Empty means detect from the OS.
	Locale string `fig:"locale"`

	Geo struct {
		Country string `fig:"country" default:"DZ"`
		// DatasetFile replaces the compiled-in region and city list.
		DatasetFile string `fig:"dataset_file"`
	} `fig:"geo"`

	Archive struct {
		BaseURL        string        `fig:"base_url" default:"https://archive-api.open-meteo.com"`
		Timezone       string        `fig:"timezone" default:"Europe/London"`
		AttemptTimeout time.Duration `fig:"attempt_timeout" default:"10s"`
		MaxRetries     int           `fig:"max_retries" default:"2"`
	} `fig:"archive"`

	Cache struct {
		TTL             time.Duration `fig:"ttl" default:"6h"`
		StaleIfErrorTTL time.Duration `fig:"stale_if_error_ttl" default:"24h"`
	} `fig:"cache"`

	Form struct {
		StrictCoordinates bool `fig:"strict_coordinates"`
	} `fig:"form"`

	Session struct {
		IdleTTL       time.Duration `fig:"idle_ttl" default:"2h"`
		MaxSessions   int           `fig:"max_sessions" default:"10000"`
		SweepInterval time.Duration `fig:"sweep_interval" default:"5m"`
		CookieSecure  bool          `fig:"cookie_secure"`
	} `fig:"session"`

	History struct {
		Capacity int `fig:"capacity" default:"500"`
	} `fig:"history"`

	Database struct {
		// URL is a postgres connection string. Empty keeps history in memory.
		URL      string `fig:"url"`
		MaxConns int32  `fig:"max_conns" default:"10"`
		MinConns int32  `fig:"min_conns" default:"1"`
	} `fig:"database"`

	Telemetry struct {
		Enabled      bool    `fig:"enabled"`
		OTLPEndpoint string  `fig:"otlp_endpoint" default:"localhost:4317"`
		SampleRatio  float64 `fig:"sample_ratio" default:"1"`
	} `fig:"telemetry"`

	Auth struct {
		SigningKey string `fig:"signing_key"`
		Issuer     string `fig:"issuer" default:"aquagraph"`
		Audience   string `fig:"audience" default:"aquagraph-admin"`
	} `fig:"auth"`

	Prefetch struct {
		Enabled     bool          `fig:"enabled"`
		Interval    time.Duration `fig:"interval" default:"6h"`
		Days        int           `fig:"days" default:"7"`
		Concurrency int           `fig:"concurrency" default:"3"`
		Timeout     time.Duration `fig:"timeout" default:"30s"`
	} `fig:"prefetch"`

	PubSub struct {
		ProjectID    string `fig:"project_id"`
		Subscription string `fig:"subscription"`
	} `fig:"pubsub"`

	RateLimit struct {
		Standard int `fig:"standard" default:"100"`
		Submit   int `fig:"submit" default:"20"`
		Admin    int `fig:"admin" default:"10"`
	} `fig:"ratelimit"`
}

// Load reads .env (if present), then the optional config file in dir, then
// the environment. An empty dir means the working directory.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if dir == "" {
		dir = "."
	}

	conf := new(Config)
	if err := fig.Load(conf,
		fig.Dirs(dir),
		fig.File(DefaultFile),
		fig.AllowNoFile(),
		fig.UseEnv(configEnv),
	); err != nil {
		return conf, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, conf.Validate()
}

// LoadFile reads a specific config file. The file must exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	conf := new(Config)
	if err := fig.Load(conf,
		fig.Dirs(filepath.Dir(path)),
		fig.File(filepath.Base(path)),
		fig.UseEnv(configEnv),
	); err != nil {
		return conf, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, conf.Validate()
}

// Validate checks values and fills derived defaults.
func (c *Config) Validate() error {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	c.Geo.Country = strings.ToUpper(strings.TrimSpace(c.Geo.Country))
	if len(c.Geo.Country) != 2 {
		return fmt.Errorf("invalid country code: %q", c.Geo.Country)
	}

	if c.Archive.BaseURL == "" {
		return errors.New("archive base url is required")
	}
	if c.Archive.MaxRetries < 0 {
		return fmt.Errorf("invalid archive max retries: %d", c.Archive.MaxRetries)
	}
	if _, err := time.LoadLocation(c.Archive.Timezone); err != nil {
		return fmt.Errorf("invalid archive timezone %q: %w", c.Archive.Timezone, err)
	}
	// The page POST redirects only after the fetch settles.
	if budget := c.ArchiveClient("").WorstCase(); c.Server.WriteTimeout <= budget {
		return fmt.Errorf("server write timeout %s must exceed the archive retry budget %s",
			c.Server.WriteTimeout, budget)
	}

	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("invalid session sweep interval: %s", c.Session.SweepInterval)
	}

	if c.Prefetch.Enabled {
		if c.Prefetch.Interval <= 0 {
			return fmt.Errorf("invalid prefetch interval: %s", c.Prefetch.Interval)
		}
		if c.Prefetch.Days < 1 || c.Prefetch.Days > 92 {
			return fmt.Errorf("invalid prefetch days: %d", c.Prefetch.Days)
		}
	}

	if (c.PubSub.ProjectID == "") != (c.PubSub.Subscription == "") {
		return errors.New("pubsub project_id and subscription must be set together")
	}

	if c.Auth.SigningKey == "" {
		if c.IsProduction() {
			return errors.New("auth signing key is required in production")
		}
		c.Auth.SigningKey = devSigningKey
	}

	return nil
}

// ArchiveClient returns the resilient client settings for the archive provider.
func (c *Config) ArchiveClient(name string) resilience.ClientConfig {
	cc := resilience.DefaultClientConfig(name)
	cc.AttemptTimeout = c.Archive.AttemptTimeout
	if c.Archive.MaxRetries >= 0 {
		cc.MaxRetries = uint64(c.Archive.MaxRetries) //nolint:gosec // checked non-negative
	}
	return cc
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDevSigningKey reports whether the built-in signing key is active.
func (c *Config) UsesDevSigningKey() bool {
	return c.Auth.SigningKey == devSigningKey
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// PubSubEnabled reports whether the job subscriber should run.
func (c *Config) PubSubEnabled() bool {
	return c.PubSub.ProjectID != "" && c.PubSub.Subscription != ""
}
