// Package crud holds the list, form and detail plumbing shared by the
// entity screens.
package crud

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/view"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/auth/login"

// Renderer renders pages with the shared template data.
type Renderer struct {
	Logger     *slog.Logger
	Templates  *view.Engine
	CSRF       *shared.CSRFManager
	Translator *i18n.Translator
}

// ErrorPage is the data of pages/error.html.
type ErrorPage struct {
	Status  int
	Heading string
	Message string
}

// Lang is the UI language of the request.
func (rd *Renderer) Lang(r *http.Request) string {
	return i18n.FromContext(r.Context())
}

// T translates an error code for the request.
func (rd *Renderer) T(r *http.Request, code string) string {
	return rd.Translator.Error(rd.Lang(r), code, "")
}

// Data assembles the template data shared by every page.
func (rd *Renderer) Data(r *http.Request, title string, data any) view.TemplateData {
	sess := shared.SessionFromContext(r.Context())
	var csrfToken string
	var flash *shared.FlashMessage
	if sess != nil {
		token, err := rd.CSRF.EnsureToken(r.Context(), sess)
		if err != nil {
			rd.Logger.Warn("csrf token", slog.Any("error", err))
		}
		csrfToken = token
		flash = sess.PopFlash()
	}
	var profile *shared.Profile
	if p, ok := shared.ProfileFromContext(r.Context()); ok {
		profile = &p
	}
	return view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Profile:     profile,
		Language:    rd.Lang(r),
		Languages:   i18n.Supported(),
		Nav:         view.Navigation(profile, r.URL.Path),
		Data:        data,
	}
}

// Render writes template with status.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	rd.RenderData(w, r, template, rd.Data(r, title, data), status)
}

// RenderData writes prepared template data with status.
func (rd *Renderer) RenderData(w http.ResponseWriter, r *http.Request, template string, data view.TemplateData, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.Templates.Render(w, template, data); err != nil {
		rd.Logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

// RedirectWithFlash stores a flash message and redirects.
func (rd *Renderer) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// Error renders the error page.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.Render(w, r, "pages/error.html", http.StatusText(status), ErrorPage{
		Status:  status,
		Heading: http.StatusText(status),
		Message: message,
	}, status)
}

// Forbidden renders the 403 page; it is the rbac denial handler.
func (rd *Renderer) Forbidden() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rd.Error(w, r, http.StatusForbidden, rd.T(r, i18n.CodeForbidden))
	})
}

// NotFound renders the 404 page.
func (rd *Renderer) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rd.Error(w, r, http.StatusNotFound, rd.T(r, i18n.CodeNotFound))
	})
}

// Fail maps a backend failure onto the page the user should see. A
// rejected token ends the session.
func (rd *Renderer) Fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			sess.SignOut()
		}
		rd.RedirectWithFlash(w, r, LoginPath, "warning", rd.T(r, i18n.CodeUnauthorized))
	case errors.Is(err, api.ErrForbidden):
		rd.Error(w, r, http.StatusForbidden, rd.T(r, i18n.CodeForbidden))
	case errors.Is(err, api.ErrNotFound):
		rd.Error(w, r, http.StatusNotFound, rd.T(r, i18n.CodeNotFound))
	case errors.Is(err, ErrTooManyRows):
		rd.Logger.Warn("collection too large", slog.Any("error", err), slog.String("path", r.URL.Path))
		rd.Error(w, r, http.StatusUnprocessableEntity, rd.T(r, i18n.CodeTooManyRows))
	case errors.Is(err, api.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		rd.Logger.Warn("backend unavailable", slog.Any("error", err), slog.String("path", r.URL.Path))
		rd.Error(w, r, http.StatusBadGateway, rd.T(r, i18n.CodeUnavailable))
	default:
		rd.Logger.Error("request failed", slog.Any("error", err), slog.String("path", r.URL.Path))
		rd.Error(w, r, http.StatusInternalServerError, rd.T(r, i18n.CodeGeneric))
	}
}
