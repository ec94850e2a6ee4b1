// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/portfolio/internal/auth"
)

// adminPasswordEnv supplies the admin password when --password-stdin is not set.
const adminPasswordEnv = "PORTFOLIO_ADMIN_PASSWORD"

// Default timeout for seed-admin.
const defaultSeedTimeout = 30 * time.Second

// seedAdminConfig holds configuration for the seed-admin command.
type seedAdminConfig struct {
	username      string
	firstName     string
	lastName      string
	email         string
	passwordStdin bool
	timeout       time.Duration
}

// NewSeedAdminCmd creates the seed-admin subcommand.
func NewSeedAdminCmd() *cobra.Command {
	return newSeedAdminCmd(openBackend)
}

func newSeedAdminCmd(open BackendOpener) *cobra.Command {
	cfg := &seedAdminConfig{}

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator account",
		Long: `Creates an administrator account, which signup never does.
The password comes from PORTFOLIO_ADMIN_PASSWORD or, with --password-stdin,
the first line of standard input. An existing username is reported and
left unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeedAdmin(cmd, cfg, open)
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "", "admin user name (3-30 alphanumeric characters)")
	cmd.Flags().StringVar(&cfg.firstName, "first-name", "Admin", "admin first name")
	cmd.Flags().StringVar(&cfg.lastName, "last-name", "User", "admin last name")
	cmd.Flags().StringVar(&cfg.email, "email", "", "admin email address")
	cmd.Flags().BoolVar(&cfg.passwordStdin, "password-stdin", false, "read the password from standard input")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	_ = cmd.MarkFlagRequired("username") //nolint:errcheck // flag is defined above
	_ = cmd.MarkFlagRequired("email")    //nolint:errcheck // flag is defined above

	return cmd
}

func runSeedAdmin(cmd *cobra.Command, cfg *seedAdminConfig, open BackendOpener) error {
	password, err := readAdminPassword(cmd, cfg.passwordStdin)
	if err != nil {
		return err
	}

	input, problems := auth.ValidateSignup(auth.SignupForm{
		Username:  cfg.username,
		FirstName: cfg.firstName,
		LastName:  cfg.lastName,
		Email:     cfg.email,
		Password:  password,
		Verify:    password,
	})
	if len(problems) > 0 {
		return oops.Code(auth.CodeInvalidInput).
			With("errors", problems).
			Errorf("invalid admin account: %s", strings.Join(problems, " "))
	}

	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	logger := stderrLogger()
	db, err := open(ctx, appCfg.DatabaseURL, true, logger)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "open database").Wrap(err)
	}
	defer db.close()

	hash, err := newHasher(appCfg.Auth).Hash(input.Password)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "hash password").Wrap(err)
	}
	user, err := auth.NewUser(input.Username, input.FirstName, input.LastName, input.Email, hash)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "build user").Wrap(err)
	}
	user.IsAdmin = true

	if err := db.users.Create(ctx, user); err != nil {
		if errors.Is(err, auth.ErrDuplicateUsername) {
			cmd.Printf("User %q already exists, skipping\n", input.Username)
			return nil
		}
		return oops.Code("SEED_FAILED").With("operation", "create user").Wrap(err)
	}

	if _, err := auth.NewBootstrapper(db.allocations, nil).Bootstrap(ctx, user.ID); err != nil {
		logger.Warn("admin created without allocation", "username", user.Username, "error", err)
	}

	cmd.Printf("Created admin %q (%s)\n", user.Username, user.ID)
	return nil
}

func readAdminPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if !fromStdin {
		if p := os.Getenv(adminPasswordEnv); p != "" {
			return p, nil
		}
		return "", oops.Code("CONFIG_INVALID").
			Errorf("set %s or pass --password-stdin", adminPasswordEnv)
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", oops.Code("CONFIG_INVALID").With("operation", "read password").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
