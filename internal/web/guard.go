// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/portfolio/internal/auth"
)

// AccessGuard answers the two access questions the route rules need.
type AccessGuard interface {
	IsLoggedIn(session *auth.Session) bool
	IsAdmin(ctx context.Context, session *auth.Session) bool
}

// RouteRules maps request paths to the access they require.
type RouteRules struct {
	login []glob.Glob
	admin []glob.Glob
}

// CompileRules compiles path globs. '*' stays within a path segment and
// '**' crosses segments. The admin landing page is always admin-only,
// whatever requireAdmin lists.
func CompileRules(requireLogin, requireAdmin []string) (*RouteRules, error) {
	login, err := compileGlobs(requireLogin)
	if err != nil {
		return nil, err
	}
	admin, err := compileGlobs(append([]string{auth.PathAdminLanding}, requireAdmin...))
	if err != nil {
		return nil, err
	}
	return &RouteRules{login: login, admin: admin}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, oops.Code("ROUTE_PATTERN_INVALID").With("pattern", p).Wrap(err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// RequiresAdmin reports whether path is admin-only.
func (r *RouteRules) RequiresAdmin(path string) bool {
	return matchAny(r.admin, path)
}

// RequiresLogin reports whether path needs a logged-in session. Admin-only
// paths need one too.
func (r *RouteRules) RequiresLogin(path string) bool {
	return matchAny(r.login, path) || r.RequiresAdmin(path)
}

// GuardMiddleware redirects to the login page whenever the session does not
// satisfy the rule for the request path. It must run inside SessionMiddleware.
func GuardMiddleware(rules *RouteRules, guard AccessGuard, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !rules.RequiresLogin(path) {
				next.ServeHTTP(w, r)
				return
			}

			session := SessionFrom(r.Context())
			allowed := session != nil && guard.IsLoggedIn(session)
			if allowed && rules.RequiresAdmin(path) {
				allowed = guard.IsAdmin(r.Context(), session)
			}
			if !allowed {
				logger.DebugContext(r.Context(), "access denied", "path", path)
				http.Redirect(w, r, auth.PathLogin, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
