// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"net/http"

	"github.com/holomush/portfolio/internal/auth"
)

// AuthService is the part of auth.Service the handlers drive.
type AuthService interface {
	Login(ctx context.Context, current *auth.Session, username, password any) (*auth.LoginResult, error)
	Signup(ctx context.Context, current *auth.Session, form auth.SignupForm) (*auth.SignupResult, error)
	Dashboard(ctx context.Context, session *auth.Session) (*auth.DashboardView, error)
	Logout(ctx context.Context, session *auth.Session) error
}

// formValue returns a posted field the way the service expects raw input:
// nil when absent, a string when sent once, and a []string when repeated.
// Repeated fields are not strings and sanitize to "".
func formValue(r *http.Request, key string) any {
	vals := r.PostForm[key]
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return vals[0]
	default:
		return vals
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, Outcome{Kind: RenderLogin, Status: http.StatusOK, View: LoginView{}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.write(w, r, Outcome{
			Kind:   RenderLogin,
			Status: http.StatusBadRequest,
			View:   LoginView{Error: auth.MsgInvalidCredentials},
		})
		return
	}
	username := formValue(r, "userName")
	result, err := s.auth.Login(r.Context(), SessionFrom(r.Context()), username, formValue(r, "password"))
	s.write(w, r, LoginOutcome(username, result, err))
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, Outcome{Kind: RenderSignup, Status: http.StatusOK, View: SignupView{}})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.write(w, r, Outcome{Kind: RenderSignup, Status: http.StatusBadRequest, View: SignupView{}})
		return
	}
	form := auth.SignupForm{
		Username:  formValue(r, "userName"),
		FirstName: formValue(r, "firstName"),
		LastName:  formValue(r, "lastName"),
		Email:     formValue(r, "email"),
		Password:  formValue(r, "password"),
		Verify:    formValue(r, "verify"),
	}
	result, err := s.auth.Signup(r.Context(), SessionFrom(r.Context()), form)
	s.write(w, r, SignupOutcome(form, result, err))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.auth.Dashboard(r.Context(), SessionFrom(r.Context()))
	s.write(w, r, DashboardOutcome(RenderDashboard, view, err))
}

func (s *Server) handleBenefits(w http.ResponseWriter, r *http.Request) {
	view, err := s.auth.Dashboard(r.Context(), SessionFrom(r.Context()))
	s.write(w, r, DashboardOutcome(RenderBenefits, view, err))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	err := s.auth.Logout(r.Context(), SessionFrom(r.Context()))
	s.write(w, r, LogoutOutcome(err))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if session := SessionFrom(r.Context()); session != nil && session.IsAuthenticated() {
		s.write(w, r, Redirect(auth.PathDashboard))
		return
	}
	s.write(w, r, Redirect(auth.PathLogin))
}
