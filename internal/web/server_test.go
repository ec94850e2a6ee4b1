// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/portfolio/internal/auth"
	authsqlite "github.com/holomush/portfolio/internal/auth/sqlite"
	"github.com/holomush/portfolio/internal/observability"
	"github.com/holomush/portfolio/internal/store"
	"github.com/holomush/portfolio/pkg/errutil"
)

type testApp struct {
	server  *httptest.Server
	client  *http.Client
	users   *authsqlite.UserRepository
	metrics *observability.Metrics
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithRules(t,
		[]string{"/dashboard", "/dashboard/**"},
		[]string{"/benefits", "/benefits/**"})
}

func newTestAppWithRules(t *testing.T, requireLogin, requireAdmin []string) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.MigrateSQLite(db))

	users := authsqlite.NewUserRepository(db)
	allocations := authsqlite.NewAllocationRepository(db)
	sessions := auth.NewSessionManager(authsqlite.NewSessionRepository(db), time.Hour, nil)

	svc, err := auth.NewService(auth.Deps{
		Users:        users,
		Sessions:     sessions,
		Hasher:       auth.NewArgon2idHasher(),
		Bootstrapper: auth.NewBootstrapper(allocations, nil),
		Allocations:  allocations,
	})
	require.NoError(t, err)

	rules, err := CompileRules(requireLogin, requireAdmin)
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	srv, err := NewServer(Config{Cookie: testCookie}, Deps{
		Auth:     svc,
		Sessions: sessions,
		Guard:    auth.NewGuard(users, nil),
		Rules:    rules,
		Metrics:  metrics,
		Logger:   slog.Default(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{server: ts, client: client, users: users, metrics: metrics}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) sessionToken(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(a.server.URL)
	require.NoError(t, err)
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == testCookie.Name {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func signupForm() url.Values {
	return url.Values{
		"userName":  {"alice"},
		"firstName": {"Alice"},
		"lastName":  {"Liddell"},
		"email":     {"alice@example.com"},
		"password":  {"wonderland"},
		"verify":    {"wonderland"},
	}
}

func TestServer_AccountLifecycle(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get(t, "/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, auth.PathLogin, resp.Header.Get("Location"))
	anonToken := app.sessionToken(t)
	require.NotEmpty(t, anonToken, "first visit issues a session cookie")

	resp, _ = app.get(t, "/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, auth.PathLogin, resp.Header.Get("Location"))

	resp, body := app.post(t, "/signup", signupForm())
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "Welcome, Alice Liddell")
	assert.Contains(t, body, "Stocks")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	userToken := app.sessionToken(t)
	assert.NotEqual(t, anonToken, userToken, "signup rotates the session token")

	resp, body = app.get(t, "/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alice@example.com")
	assert.NotContains(t, body, "argon2id")

	resp, _ = app.get(t, "/")
	assert.Equal(t, auth.PathDashboard, resp.Header.Get("Location"))

	resp, _ = app.get(t, "/benefits")
	assert.Equal(t, http.StatusFound, resp.StatusCode, "plain users cannot reach admin pages")
	assert.Equal(t, auth.PathLogin, resp.Header.Get("Location"))

	resp, _ = app.get(t, "/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, auth.PathRoot, resp.Header.Get("Location"))

	resp, _ = app.get(t, "/dashboard")
	assert.Equal(t, auth.PathLogin, resp.Header.Get("Location"))

	resp, body = app.post(t, "/login", url.Values{"userName": {"alice"}, "password": {"looking-glass"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, auth.MsgInvalidCredentials)
	assert.Contains(t, body, `value="alice"`)
	assert.NotContains(t, body, "looking-glass")

	resp, _ = app.post(t, "/login", url.Values{"userName": {"alice"}, "password": {"wonderland"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, auth.PathDashboard, resp.Header.Get("Location"))

	user, err := app.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NoError(t, app.users.SetAdmin(context.Background(), user.ID, true))

	resp, _ = app.post(t, "/login", url.Values{"userName": {"alice"}, "password": {"wonderland"}})
	assert.Equal(t, auth.PathAdminLanding, resp.Header.Get("Location"))

	resp, body = app.get(t, "/benefits")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Benefits administration")
}

func TestServer_AdminLandingStaysAdminOnly(t *testing.T) {
	app := newTestAppWithRules(t, []string{"/dashboard"}, []string{"/admin/**"})

	resp, body := app.post(t, "/signup", signupForm())
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, _ = app.get(t, auth.PathAdminLanding)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, auth.PathLogin, resp.Header.Get("Location"))

	user, err := app.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NoError(t, app.users.SetAdmin(context.Background(), user.ID, true))

	resp, body = app.get(t, auth.PathAdminLanding)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Benefits administration")
}

func TestServer_SignupErrors(t *testing.T) {
	app := newTestApp(t)

	form := signupForm()
	form.Set("verify", "different")
	form.Set("email", "not-an-email")
	resp, body := app.post(t, "/signup", form)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	emailAt := strings.Index(body, auth.MsgEmailInvalid)
	mismatchAt := strings.Index(body, auth.MsgPasswordMismatch)
	require.NotEqual(t, -1, emailAt)
	require.NotEqual(t, -1, mismatchAt)
	assert.Less(t, emailAt, mismatchAt, "errors keep validation order")
	assert.Contains(t, body, `value="Alice"`)
	assert.NotContains(t, body, "wonderland")

	resp, _ = app.post(t, "/signup", signupForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dup := signupForm()
	dup.Set("userName", "ALICE")
	resp, body = app.post(t, "/signup", dup)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, auth.MsgUsernameTaken)
}

func TestServer_RepeatedLoginFieldIsRejected(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.post(t, "/login", url.Values{"userName": {"alice", "bob"}, "password": {"wonderland"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, auth.MsgInvalidCredentials)
	assert.Contains(t, body, `value=""`)
}

func TestServer_PagesAndMethods(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="userName"`)

	resp, body = app.get(t, "/signup")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="verify"`)

	resp, _ = app.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, app.server.URL+"/login", nil)
	require.NoError(t, err)
	resp, err = app.client.Do(req)
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_RecordsRouteMetrics(t *testing.T) {
	app := newTestApp(t)

	app.get(t, "/login")
	app.get(t, "/login")
	app.get(t, "/dashboard")
	app.get(t, "/does/not/exist")

	assert.InDelta(t, 2, testutil.ToFloat64(app.metrics.RequestsTotal.WithLabelValues("GET /login", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(app.metrics.RequestsTotal.WithLabelValues("GET /dashboard", "302")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(app.metrics.RequestsTotal.WithLabelValues("unmatched", "404")), 0)
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(Config{}, Deps{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "WEB_SERVER_MISCONFIGURED")
}

func TestServer_StartStop(t *testing.T) {
	rules, err := CompileRules(nil, nil)
	require.NoError(t, err)
	srv, err := NewServer(Config{Addr: "127.0.0.1:0", Cookie: testCookie}, Deps{
		Auth:     stubAuth{},
		Sessions: stubSessions{},
		Guard:    fakeGuard{},
		Rules:    rules,
	})
	require.NoError(t, err)
	assert.Empty(t, srv.Addr())

	errCh, err := srv.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, srv.Addr())

	_, err = srv.Start()
	errutil.AssertErrorCode(t, err, "WEB_ALREADY_RUNNING")

	resp, err := http.Get("http://" + srv.Addr() + "/login")
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx), "second stop is a no-op")

	_, open := <-errCh
	assert.False(t, open)
}

type stubAuth struct{}

func (stubAuth) Login(context.Context, *auth.Session, any, any) (*auth.LoginResult, error) {
	return nil, errors.New("not used")
}

func (stubAuth) Signup(context.Context, *auth.Session, auth.SignupForm) (*auth.SignupResult, error) {
	return nil, errors.New("not used")
}

func (stubAuth) Dashboard(context.Context, *auth.Session) (*auth.DashboardView, error) {
	return nil, errors.New("not used")
}

func (stubAuth) Logout(context.Context, *auth.Session) error { return nil }

// stubSessions hands every request the same anonymous session.
type stubSessions struct{}

func (stubSessions) Create(context.Context) (*auth.Session, string, error) {
	return &auth.Session{ID: ulid.Make()}, "token", nil
}

func (stubSessions) Get(context.Context, string) (*auth.Session, error) {
	return &auth.Session{ID: ulid.Make()}, nil
}

func (stubSessions) Regenerate(context.Context, *auth.Session) (*auth.Session, string, error) {
	return &auth.Session{ID: ulid.Make()}, "token", nil
}

func (stubSessions) Bind(context.Context, *auth.Session, ulid.ULID) error { return nil }

func (stubSessions) Destroy(context.Context, *auth.Session) error { return nil }
