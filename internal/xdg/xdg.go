// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg locates portfolio's config file and default SQLite database
// under the XDG base directories.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "portfolio"

// ConfigDir is $XDG_CONFIG_HOME/portfolio, or ~/.config/portfolio.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir is $XDG_DATA_HOME/portfolio, or ~/.local/share/portfolio.
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", ".local", "share")
}

// ConfigFile returns the config file read when --config is not given.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDatabaseURL returns the SQLite URL used when no database_url is configured.
func DefaultDatabaseURL() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return "sqlite://" + filepath.Join(dir, "portfolio.db"), nil
}

// resolve ignores relative base directories, as the XDG basedir rules require.
func resolve(envVar string, fallback ...string) (string, error) {
	if base := os.Getenv(envVar); base != "" && filepath.IsAbs(base) {
		return filepath.Join(base, appName), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		return "", oops.Code("XDG_NO_HOME").
			With("env", envVar).
			Errorf("neither %s nor HOME is set", envVar)
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...), nil
}

// EnsureDir creates path and its parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_MKDIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

// EnsureParentDir creates the directory that will hold file.
func EnsureParentDir(file string) error {
	return EnsureDir(filepath.Dir(file))
}
