// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/portfolio/internal/config"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.Redacted().Render()
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err //nolint:wrapcheck // stdout write
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
			return err //nolint:wrapcheck // stdout write
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check a config file against the schema and the runtime rules",
		Long: `Check a config file against the JSON Schema, the supported version
range, and the route patterns. FILE defaults to --config, then to the XDG
config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if len(args) == 1 {
				path = args[0]
			}
			if path != "" {
				if _, err := os.Stat(path); err != nil {
					return oops.Code("CONFIG_NOT_FOUND").With("path", path).Wrap(err)
				}
			}
			if _, err := config.Load(path, nil); err != nil {
				return err //nolint:wrapcheck // already coded
			}
			if path == "" {
				cmd.Println("Configuration is valid")
				return nil
			}
			cmd.Printf("%s is valid\n", path)
			return nil
		},
	})

	return cmd
}
