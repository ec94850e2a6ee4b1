// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/portfolio/internal/xdg"
)

// DatabaseURLEnv overrides database_url from the config file.
const DatabaseURLEnv = "DATABASE_URL"

// Flag names bound to config keys by Load.
const (
	FlagDatabaseURL = "database-url"
	FlagHTTPAddr    = "addr"
	FlagMetricsAddr = "metrics-addr"
	FlagLogFormat   = "log-format"
	FlagLogLevel    = "log-level"
)

var flagKeys = map[string]string{
	FlagDatabaseURL: "database_url",
	FlagHTTPAddr:    "http.addr",
	FlagMetricsAddr: "metrics.addr",
	FlagLogFormat:   "log.format",
	FlagLogLevel:    "log.level",
}

// Load builds a Config from defaults, the config file, DATABASE_URL, and
// flags. An empty path means the XDG default, which may be absent; an
// explicit path must exist. flags may be nil. The result is validated.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := load(path, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	filePath, required := resolvePath(path)
	data, readErr := readFile(filePath)
	switch {
	case readErr == nil:
		if err := ValidateYAML(data); err != nil {
			return nil, oops.With("path", filePath).Wrap(err)
		}
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", filePath).Wrap(err)
		}
	case errors.Is(readErr, fs.ErrNotExist) && !required:
	default:
		return nil, oops.Code("CONFIG_NOT_FOUND").With("path", filePath).Wrap(readErr)
	}

	if dsn := os.Getenv(DatabaseURLEnv); dsn != "" {
		if err := k.Set("database_url", dsn); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("env", DatabaseURLEnv).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	// Lists from the file replace the defaults instead of merging into them.
	if k.Exists("routes.require_login") {
		cfg.Routes.RequireLogin = nil
	}
	if k.Exists("routes.require_admin") {
		cfg.Routes.RequireAdmin = nil
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	if cfg.DatabaseURL == "" {
		if def, err := xdg.DefaultDatabaseURL(); err == nil {
			cfg.DatabaseURL = def
		}
	}
	return &cfg, nil
}

// resolvePath returns the file to read and whether it must exist. Without
// HOME or XDG_CONFIG_HOME there is no default file.
func resolvePath(path string) (resolved string, required bool) {
	if path != "" {
		return path, true
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		return "", false
	}
	return def, false
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fs.ErrNotExist
	}
	return os.ReadFile(path) //nolint:gosec,wrapcheck // operator-supplied config path; caller wraps
}

// RegisterFlags adds the config-backed flags to fs with defaults from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String(FlagDatabaseURL, "", "database URL (postgres:// or sqlite://); overrides DATABASE_URL")
	fs.String(FlagHTTPAddr, def.HTTP.Addr, "web server listen address")
	fs.String(FlagMetricsAddr, def.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.String(FlagLogFormat, def.Log.Format, "log format (json or text)")
	fs.String(FlagLogLevel, def.Log.Level, "log level (debug, info, warn, error)")
}
