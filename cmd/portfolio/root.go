// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/portfolio/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the portfolio CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(NewServeCmd(), NewMigrateCmd(), NewSeedAdminCmd(), NewConfigCmd())
}

func newRootCmd(subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio - login, signup, and allocation dashboard server",
		Long: `Portfolio serves the account pages of the portfolio application:
login, signup, and a dashboard showing each user's asset allocation.
Accounts and sessions live in PostgreSQL or SQLite.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/portfolio/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(subcommands...)

	return cmd
}

// loadConfig resolves the configuration for cmd from --config, the
// environment, and the config-backed flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags()) //nolint:wrapcheck // config errors carry their own codes
}
