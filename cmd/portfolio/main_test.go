// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	output, err := execute(NewRootCmd(), "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "migrate", "seed-admin", "config"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "config flag",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "config flag with equals",
			args:     []string{"--config=/etc/portfolio.yaml", "--help"},
			wantFlag: "/etc/portfolio.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""
			_, err := execute(NewRootCmd(), tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_ConfigBackedFlagsAreGlobal(t *testing.T) {
	output, err := execute(NewRootCmd(), "serve", "--help")
	require.NoError(t, err)

	for _, flag := range []string{"--config", "--database-url", "--addr", "--metrics-addr", "--log-format", "--log-level"} {
		assert.Contains(t, output, flag)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	output, err := execute(cmd, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "test-version")
}

func TestRootCommand_NoArgs(t *testing.T) {
	_, err := execute(NewRootCmd())
	require.NoError(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(NewRootCmd(), "nonexistent")
	require.Error(t, err)
}

func TestInvalidFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetErr(new(bytes.Buffer))
	_, err := execute(cmd, "--invalid-flag")
	require.Error(t, err)
}

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		commit   string
		date     string
		expected string
	}{
		{
			name:     "default values",
			version:  "dev",
			commit:   "unknown",
			date:     "unknown",
			expected: "dev (commit: unknown, built: unknown)",
		},
		{
			name:     "release version",
			version:  "1.0.0",
			commit:   "abc123",
			date:     "2026-01-15",
			expected: "1.0.0 (commit: abc123, built: 2026-01-15)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatVersion(tt.version, tt.commit, tt.date))
		})
	}
}

func TestRun_Success(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"portfolio", "--help"}
	assert.Equal(t, 0, run())
}

func TestRun_Error(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"portfolio", "nonexistent-command"}
	assert.Equal(t, 1, run())
}
