// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/portfolio/internal/auth"
	"github.com/holomush/portfolio/internal/config"
	"github.com/holomush/portfolio/internal/logging"
	"github.com/holomush/portfolio/internal/observability"
	"github.com/holomush/portfolio/internal/web"
	"github.com/holomush/portfolio/pkg/errutil"
)

const serviceName = "portfolio"

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// OpenBackend connects to the database.
	// Default: openBackend
	OpenBackend BackendOpener

	// Started is called once both servers are listening.
	Started func(webAddr, metricsAddr string)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the portfolio web server together with the metrics and
health endpoints. Pending migrations are applied first unless
PORTFOLIO_DB_AUTO_MIGRATE=false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			logger := logging.SetDefault(serviceName, version, logging.Options{Format: cfg.Log.Format, Level: level})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, logger, nil)
		},
	}
}

// runServe runs the servers until ctx is done or a server fails.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.OpenBackend == nil {
		deps.OpenBackend = openBackend
	}

	logger.Info("starting portfolio",
		"addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"database", cfg.Redacted().DatabaseURL)

	db, err := deps.OpenBackend(ctx, cfg.DatabaseURL, parseAutoMigrate(), logger)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "open database").Wrap(err)
	}
	defer db.close()
	logger.Info("connected to database", "dialect", string(db.dialect))

	hasher := newHasher(cfg.Auth)
	dummyHash, err := hasher.Hash(rand.Text())
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "prepare dummy hash").Wrap(err)
	}

	sessions := auth.NewSessionManager(db.sessions, cfg.Session.TTL.Std(), logger)
	service, err := auth.NewService(auth.Deps{
		Users:        db.users,
		Sessions:     sessions,
		Hasher:       hasher,
		Bootstrapper: auth.NewBootstrapper(db.allocations, nil),
		Allocations:  db.allocations,
	},
		auth.WithLogger(logger),
		auth.WithStorageTimeout(cfg.Auth.StorageTimeout.Std()),
		auth.WithHashTimeout(cfg.Auth.HashTimeout.Std()),
		auth.WithDummyHash(dummyHash),
	)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "build auth service").Wrap(err)
	}

	rules, err := web.CompileRules(cfg.Routes.RequireLogin, cfg.Routes.RequireAdmin)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "compile route rules").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The web server reports its metrics into the observability registry, so
	// the registry exists even when the metrics endpoint is disabled.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr,
			observability.WithLogger(logger),
			observability.WithReadiness(db.ping),
			observability.WithRegistrars(auth.RegisterMetrics),
		)
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	webServer, err := web.NewServer(web.Config{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Std(),
		Cookie: web.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL.Std(),
			Secure: cfg.Session.Secure,
		},
		StorageTimeout: cfg.Auth.StorageTimeout.Std(),
	}, web.Deps{
		Auth:     service,
		Sessions: sessions,
		Guard:    auth.NewGuard(db.users, logger, auth.WithLookupTimeout(cfg.Auth.StorageTimeout.Std())),
		Rules:    rules,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "build web server").Wrap(err)
	}

	shutdownTimeout := cfg.HTTP.ShutdownTimeout.Std()
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}

	metricsAddr := ""
	if obsServer != nil {
		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(startErr)
		}
		defer stopServer(logger, "observability", obsServer.Stop, shutdownTimeout)
		go monitorServerErrors(ctx, cancel, obsErrCh, logger, "observability")
		metricsAddr = obsServer.Addr()
	}

	webErrCh, err := webServer.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "start web server").Wrap(err)
	}
	defer stopServer(logger, "web", webServer.Stop, shutdownTimeout)
	go monitorServerErrors(ctx, cancel, webErrCh, logger, "web")

	go runPurger(ctx, cfg.Session.PurgeInterval.Std(), sessions.PurgeExpired, metrics.ObservePurge, logger)

	cmd.Println("Portfolio server started")
	logger.Info("portfolio ready", "addr", webServer.Addr(), "metrics_addr", metricsAddr)
	if deps.Started != nil {
		deps.Started(webServer.Addr(), metricsAddr)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func newHasher(c config.AuthConfig) *auth.Argon2idHasher {
	return auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:      c.HashIterations,
		MemoryKiB: c.HashMemoryKiB,
		Threads:   c.HashThreads,
	})
}

func stopServer(logger *slog.Logger, name string, stop func(context.Context) error, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		errutil.LogError(logger, "error stopping "+name+" server", err)
	}
}

// runPurger deletes expired sessions every interval until ctx is done.
// A non-positive interval disables purging.
func runPurger(ctx context.Context, interval time.Duration, purge func(context.Context) (int64, error), observe func(int64), logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purge(ctx)
			if err != nil {
				if ctx.Err() == nil {
					errutil.LogError(logger, "session purge failed", err)
				}
				continue
			}
			observe(n)
			if n > 0 {
				logger.Debug("purged expired sessions", "count", n)
			}
		}
	}
}

// monitorServerErrors cancels ctx when a server reports a failure.
// It exits when an error is received, the channel is closed, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, logger *slog.Logger, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}

// stderrLogger is used by commands that run before logging is configured.
func stderrLogger() *slog.Logger {
	return logging.New(serviceName, version, logging.Options{Format: "text", Level: slog.LevelWarn}, os.Stderr)
}
