// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/samber/oops"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = map[OutcomeKind]string{
	RenderLogin:     "login.html",
	RenderSignup:    "signup.html",
	RenderDashboard: "dashboard.html",
	RenderBenefits:  "benefits.html",
	InternalError:   "error.html",
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, oops.Code("TEMPLATE_PARSE_FAILED").Wrap(err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page for out. The page is rendered into a buffer first
// so a template failure can still produce a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, out Outcome) error {
	name, ok := pageTemplates[out.Kind]
	if !ok {
		return oops.Code("TEMPLATE_UNKNOWN").With("kind", out.Kind.String()).Errorf("no template for outcome")
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, out.View); err != nil {
		return oops.Code("TEMPLATE_EXEC_FAILED").With("template", name).Wrap(err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(out.Status)
	_, err := w.Write(buf.Bytes())
	return err //nolint:wrapcheck // client write errors are not actionable
}
