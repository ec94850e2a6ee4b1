// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads portfolio configuration from a YAML file, the
// DATABASE_URL environment variable, and command-line flags, in that order
// of increasing precedence.
package config

import (
	"net/url"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// CurrentVersion is the config file format written by `config show`.
const CurrentVersion = "1.0.0"

// SupportedVersions is the range of config file formats this build reads.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

// Config is the complete runtime configuration.
type Config struct {
	Version     string        `koanf:"version" json:"version" jsonschema:"required,description=Config file format version (semver)"`
	DatabaseURL string        `koanf:"database_url" json:"database_url,omitempty" jsonschema:"description=postgres:// or sqlite:// URL; DATABASE_URL overrides it"`
	HTTP        HTTPConfig    `koanf:"http" json:"http,omitempty"`
	Session     SessionConfig `koanf:"session" json:"session,omitempty"`
	Auth        AuthConfig    `koanf:"auth" json:"auth,omitempty"`
	Routes      RoutesConfig  `koanf:"routes" json:"routes,omitempty"`
	Log         LogConfig     `koanf:"log" json:"log,omitempty"`
	Metrics     MetricsConfig `koanf:"metrics" json:"metrics,omitempty"`
}

// HTTPConfig configures the web server.
type HTTPConfig struct {
	Addr              string   `koanf:"addr" json:"addr,omitempty" jsonschema:"description=Listen address"`
	ReadHeaderTimeout Duration `koanf:"read_header_timeout" json:"read_header_timeout,omitempty"`
	ShutdownTimeout   Duration `koanf:"shutdown_timeout" json:"shutdown_timeout,omitempty"`
}

// SessionConfig configures the session cookie and its lifetime.
type SessionConfig struct {
	CookieName    string   `koanf:"cookie_name" json:"cookie_name,omitempty" jsonschema:"pattern=^[A-Za-z0-9_-]+$"`
	TTL           Duration `koanf:"ttl" json:"ttl,omitempty"`
	Secure        bool     `koanf:"secure" json:"secure,omitempty" jsonschema:"description=Send the cookie only over HTTPS"`
	PurgeInterval Duration `koanf:"purge_interval" json:"purge_interval,omitempty"`
}

// AuthConfig bounds the latency of the authentication core and sets the
// argon2id cost of new password hashes. Zero costs use the built-in defaults.
type AuthConfig struct {
	StorageTimeout Duration `koanf:"storage_timeout" json:"storage_timeout,omitempty"`
	HashTimeout    Duration `koanf:"hash_timeout" json:"hash_timeout,omitempty"`
	HashIterations uint32   `koanf:"hash_iterations" json:"hash_iterations,omitempty" jsonschema:"minimum=0,maximum=16"`
	HashMemoryKiB  uint32   `koanf:"hash_memory_kib" json:"hash_memory_kib,omitempty" jsonschema:"minimum=0,maximum=1048576"`
	HashThreads    uint8    `koanf:"hash_threads" json:"hash_threads,omitempty" jsonschema:"minimum=0,maximum=64"`
}

// RoutesConfig lists path globs that need a logged-in or admin session.
// '*' matches within one path segment and '**' across segments.
type RoutesConfig struct {
	RequireLogin []string `koanf:"require_login" json:"require_login,omitempty"`
	RequireAdmin []string `koanf:"require_admin" json:"require_admin,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig configures the observability server. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Version: CurrentVersion,
		HTTP: HTTPConfig{
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: Duration(10 * time.Second),
			ShutdownTimeout:   Duration(15 * time.Second),
		},
		Session: SessionConfig{
			CookieName:    "portfolio_session",
			TTL:           Duration(24 * time.Hour),
			PurgeInterval: Duration(10 * time.Minute),
		},
		Auth: AuthConfig{
			StorageTimeout: Duration(5 * time.Second),
			HashTimeout:    Duration(10 * time.Second),
		},
		Routes: RoutesConfig{
			RequireLogin: []string{"/dashboard", "/dashboard/**"},
			RequireAdmin: []string{"/benefits", "/benefits/**"},
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
	}
}

// Validate checks cross-field rules the schema cannot express.
func (c *Config) Validate() error {
	if err := checkVersion(c.Version); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("field", "database_url").
			Errorf("database_url is required (set it in the config file, DATABASE_URL, or --database-url)")
	}
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("field", "http.addr").Errorf("http.addr is required")
	}
	if c.Session.CookieName == "" {
		return oops.Code("CONFIG_INVALID").With("field", "session.cookie_name").Errorf("session.cookie_name is required")
	}
	for field, d := range map[string]Duration{
		"session.ttl":            c.Session.TTL,
		"session.purge_interval": c.Session.PurgeInterval,
		"auth.storage_timeout":   c.Auth.StorageTimeout,
		"auth.hash_timeout":      c.Auth.HashTimeout,
	} {
		if d <= 0 {
			return oops.Code("CONFIG_INVALID").
				With("field", field).
				Errorf("%s must be positive, got %s", field, d)
		}
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("field", "log.format").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	for _, pattern := range append(append([]string{}, c.Routes.RequireLogin...), c.Routes.RequireAdmin...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return oops.Code("CONFIG_INVALID").
				With("field", "routes").
				With("pattern", pattern).
				Wrap(err)
		}
	}
	return nil
}

func checkVersion(raw string) error {
	v, err := semver.StrictNewVersion(raw)
	if err != nil {
		return oops.Code("CONFIG_VERSION_INVALID").
			With("version", raw).
			Wrap(err)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return oops.Code("CONFIG_VERSION_INVALID").Wrap(err)
	}
	if !constraint.Check(v) {
		return oops.Code("CONFIG_VERSION_UNSUPPORTED").
			With("version", raw).
			With("supported", SupportedVersions).
			Errorf("config version %s is not in the supported range %s", raw, SupportedVersions)
	}
	return nil
}

// Redacted returns a copy safe to print: the database password is masked.
func (c Config) Redacted() Config {
	if u, err := url.Parse(c.DatabaseURL); err == nil && u.User != nil {
		c.DatabaseURL = u.Redacted()
	}
	c.Routes.RequireLogin = append([]string(nil), c.Routes.RequireLogin...)
	c.Routes.RequireAdmin = append([]string(nil), c.Routes.RequireAdmin...)
	return c
}
