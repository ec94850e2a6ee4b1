// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"

	"github.com/holomush/portfolio/internal/auth"
)

// OutcomeKind tags what a handler decided to send.
type OutcomeKind int

// Outcome kinds.
const (
	RenderLogin OutcomeKind = iota
	RenderSignup
	RedirectTo
	RenderDashboard
	RenderBenefits
	InternalError
)

func (k OutcomeKind) String() string {
	switch k {
	case RenderLogin:
		return "render_login"
	case RenderSignup:
		return "render_signup"
	case RedirectTo:
		return "redirect"
	case RenderDashboard:
		return "render_dashboard"
	case RenderBenefits:
		return "render_benefits"
	default:
		return "internal_error"
	}
}

// Outcome is a handler's decision, applied to the response by Server.write.
type Outcome struct {
	Kind   OutcomeKind
	Status int
	// Path is the redirect target for RedirectTo.
	Path string
	// View is the template data for the Render kinds.
	View any

	// SetToken, when non-empty, replaces the session cookie.
	SetToken string
	// ClearSession expires the session cookie.
	ClearSession bool
}

// LoginView is the data for the login page. Password is never echoed.
type LoginView struct {
	Username string
	Error    string
}

// SignupView is the data for the signup page. Password and verify are never echoed.
type SignupView struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Errors    []string
}

// ErrorView is the data for the generic error page.
type ErrorView struct {
	Message string
}

// Redirect returns a 302 to path.
func Redirect(path string) Outcome {
	return Outcome{Kind: RedirectTo, Status: http.StatusFound, Path: path}
}

// Internal returns the generic 500 page. Details stay in the log.
func Internal() Outcome {
	return Outcome{
		Kind:   InternalError,
		Status: http.StatusInternalServerError,
		View:   ErrorView{Message: auth.MsgInternal},
	}
}

// LoginOutcome maps the result of Service.Login. Success redirects to the
// role's landing page with a fresh session cookie.
func LoginOutcome(username any, result *auth.LoginResult, err error) Outcome {
	if err == nil {
		out := Redirect(result.Destination)
		out.SetToken = result.Token
		return out
	}

	kind := auth.Classify(err)
	switch kind {
	case auth.KindValidation, auth.KindRejected:
		return Outcome{
			Kind:   RenderLogin,
			Status: kind.Status(),
			View: LoginView{
				Username: auth.SanitizeField(username),
				Error:    auth.MsgInvalidCredentials,
			},
		}
	default:
		return Internal()
	}
}

// SignupOutcome maps the result of Service.Signup. Success renders the new
// user's dashboard directly.
func SignupOutcome(form auth.SignupForm, result *auth.SignupResult, err error) Outcome {
	if err == nil {
		return Outcome{
			Kind:     RenderDashboard,
			Status:   http.StatusOK,
			View:     result.Dashboard,
			SetToken: result.Token,
		}
	}

	kind := auth.Classify(err)
	var problems []string
	switch kind {
	case auth.KindValidation:
		problems = auth.ValidationErrorsOf(err)
	case auth.KindConflict:
		problems = []string{auth.MsgUsernameTaken}
	default:
		return Internal()
	}
	return Outcome{
		Kind:   RenderSignup,
		Status: kind.Status(),
		View: SignupView{
			Username:  auth.SanitizeField(form.Username),
			FirstName: auth.SanitizeField(form.FirstName),
			LastName:  auth.SanitizeField(form.LastName),
			Email:     auth.SanitizeField(form.Email),
			Errors:    problems,
		},
	}
}

// DashboardOutcome maps the result of Service.Dashboard. Sessions without a
// live user go to the login page.
func DashboardOutcome(kind OutcomeKind, view *auth.DashboardView, err error) Outcome {
	if err == nil {
		return Outcome{Kind: kind, Status: http.StatusOK, View: *view}
	}
	if auth.Classify(err) == auth.KindUnauthenticated {
		return Redirect(auth.PathLogin)
	}
	return Internal()
}

// LogoutOutcome maps the result of Service.Logout.
func LogoutOutcome(err error) Outcome {
	if err != nil {
		return Internal()
	}
	out := Redirect(auth.PathRoot)
	out.ClearSession = true
	return out
}
