// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web serves the portfolio login, signup, and dashboard pages on
// top of the auth core.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/portfolio/internal/auth"
	"github.com/holomush/portfolio/internal/observability"
	"github.com/holomush/portfolio/pkg/errutil"
)

// Config holds the server settings.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	Cookie            CookieConfig
	// StorageTimeout bounds session store calls made by the middleware.
	StorageTimeout time.Duration
}

// Deps are the collaborators the server needs. Metrics is optional.
type Deps struct {
	Auth     AuthService
	Sessions auth.SessionStore
	Guard    AccessGuard
	Rules    *RouteRules
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Server is the portfolio HTTP server.
type Server struct {
	cfg      Config
	auth     AuthService
	renderer *Renderer
	logger   *slog.Logger
	cookie   CookieConfig
	handler  http.Handler

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer builds the routes and middleware chain.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Sessions == nil || deps.Guard == nil || deps.Rules == nil {
		return nil, oops.Code("WEB_SERVER_MISCONFIGURED").Errorf("auth, sessions, guard, and rules are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		auth:     deps.Auth,
		renderer: renderer,
		logger:   logger,
		cookie:   cfg.Cookie,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+auth.PathLogin, s.handleLoginPage)
	mux.HandleFunc("POST "+auth.PathLogin, s.handleLogin)
	mux.HandleFunc("GET "+auth.PathSignup, s.handleSignupPage)
	mux.HandleFunc("POST "+auth.PathSignup, s.handleSignup)
	mux.HandleFunc("GET "+auth.PathDashboard, s.handleDashboard)
	mux.HandleFunc("GET "+auth.PathAdminLanding, s.handleBenefits)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	var h http.Handler = mux
	h = GuardMiddleware(deps.Rules, deps.Guard, logger)(h)
	h = SessionMiddleware(deps.Sessions, cfg.Cookie, cfg.StorageTimeout, logger)(h)
	if deps.Metrics != nil {
		h = MetricsMiddleware(deps.Metrics, mux)(h)
	}
	s.handler = h
	return s, nil
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// write applies an outcome to the response.
func (s *Server) write(w http.ResponseWriter, r *http.Request, out Outcome) {
	if out.ClearSession {
		s.cookie.clear(w)
	}
	if out.SetToken != "" {
		s.cookie.set(w, out.SetToken)
	}

	if out.Kind == RedirectTo {
		http.Redirect(w, r, out.Path, out.Status)
		return
	}
	if err := s.renderer.Render(w, out); err != nil {
		errutil.LogError(s.logger, "render failed", err)
		writeInternal(w)
	}
}

// Start listens on the configured address and serves in the background.
// The returned channel reports a serve failure and is closed on shutdown.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("WEB_ALREADY_RUNNING").Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("WEB_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	readHeaderTimeout := s.cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}
	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.Code("WEB_SHUTDOWN_FAILED").Wrap(err)
		}
	}
	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
