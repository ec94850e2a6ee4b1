// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/holomush/portfolio/internal/auth"
	"github.com/holomush/portfolio/pkg/errutil"
)

type sessionKey struct{}

// SessionFrom returns the session attached by SessionMiddleware, or nil.
func SessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionKey{}).(*auth.Session) //nolint:errcheck // type assertion, absent means nil
	return s
}

// WithSession attaches session to ctx.
func WithSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (c CookieConfig) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionMiddleware loads the session named by the cookie, issuing a new
// anonymous one when the cookie is missing or unknown or expired. Each store
// call is bounded by timeout; zero means auth.DefaultStorageTimeout.
func SessionMiddleware(store auth.SessionStore, cookie CookieConfig, timeout time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = auth.DefaultStorageTimeout
	}
	bounded := func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, timeout)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var session *auth.Session
			if c, err := r.Cookie(cookie.Name); err == nil && c.Value != "" {
				getCtx, cancel := bounded(ctx)
				s, getErr := store.Get(getCtx, c.Value)
				cancel()
				switch {
				case getErr == nil:
					session = s
				case errors.Is(getErr, auth.ErrNotFound):
				default:
					errutil.LogError(logger, "session lookup failed", getErr)
					writeInternal(w)
					return
				}
			}

			if session == nil {
				createCtx, cancel := bounded(ctx)
				s, token, err := store.Create(createCtx)
				cancel()
				if err != nil {
					errutil.LogError(logger, "session create failed", err)
					writeInternal(w)
					return
				}
				cookie.set(w, token)
				session = s
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, session)))
		})
	}
}

func writeInternal(w http.ResponseWriter) {
	http.Error(w, auth.MsgInternal, http.StatusInternalServerError)
}
