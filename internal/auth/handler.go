package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	renderer       *crud.Renderer
	sessionManager *shared.SessionManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, renderer *crud.Renderer, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		renderer:       renderer,
		sessionManager: sessions,
	}
}

// MountRoutes registers the /auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// MountAccount registers the profile page; it expects RequireLogin.
func (h *Handler) MountAccount(r chi.Router) {
	r.Get("/profile", h.showProfile)
}

// MountLanguage registers the language switch, open to anonymous users.
func (h *Handler) MountLanguage(r chi.Router) {
	r.Post("/language", h.handleLanguage)
}

// LoginPage is the data of pages/login.html.
type LoginPage struct {
	Form *form.Form
}

// ProfilePage is the data of pages/profile.html.
type ProfilePage struct {
	Profile     shared.Profile
	Permissions []string
	Admin       bool
	ExpiresAt   *time.Time
}

const paramNext = "next"

func loginForm(next string) *form.Form {
	f := form.New(crud.LoginPath,
		form.Input("username", "Username").Require().Alias("login", "email"),
		form.Input("password", "Password").As(form.KindPassword).Require(),
		form.Input(paramNext, "").As(form.KindHidden).WithValue(next),
	)
	f.SubmitLabel = "Sign in"
	return f
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, f *form.Form, status int) {
	h.renderer.Render(w, r, "pages/login.html", "Sign in", LoginPage{Form: f}, status)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	next := SafeRedirect(r.URL.Query().Get(paramNext), "/")
	if _, ok := shared.ProfileFromContext(r.Context()); ok {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, loginForm(next), http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	lang := h.renderer.Lang(r)
	f := loginForm("/")
	f.Bind(r.PostForm)
	next := SafeRedirect(f.Value(paramNext), "/")
	creds := Credentials{Username: f.Value("username"), Password: f.Value("password")}
	if !f.Validate(creds, h.renderer.Translator, lang) {
		h.renderLogin(w, r, f, http.StatusUnprocessableEntity)
		return
	}

	result, err := h.service.Authenticate(r.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidCredentials):
			f.AddToast(h.renderer.Translator.Error(lang, i18n.CodeInvalidCredentials, ""))
		case errors.Is(err, api.ErrUnavailable):
			h.logger.Warn("sign in unavailable", slog.Any("error", err))
			f.ApplyErrors(err, h.renderer.Translator, lang)
		default:
			h.logger.Info("sign in rejected", slog.String("username", creds.Username), slog.Any("error", err))
			f.ApplyErrors(err, h.renderer.Translator, lang)
		}
		h.renderLogin(w, r, f, http.StatusUnprocessableEntity)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		h.renderer.Error(w, r, http.StatusInternalServerError, h.renderer.T(r, i18n.CodeGeneric))
		return
	}
	if err := sess.SignIn(result.Profile, result.Token); err != nil {
		h.logger.Error("store session", slog.Any("error", err))
		h.renderer.Error(w, r, http.StatusInternalServerError, h.renderer.T(r, i18n.CodeGeneric))
		return
	}
	if sess.Language() == "" && i18n.IsSupported(result.Profile.Locale) {
		sess.SetLanguage(result.Profile.Locale)
	}
	h.logger.Info("signed in", slog.String("user", result.Profile.Username))
	h.renderer.RedirectWithFlash(w, r, next, "success", "Welcome back, "+result.Profile.DisplayName())
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, crud.LoginPath, http.StatusSeeOther)
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := shared.ProfileFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, crud.LoginPath, http.StatusSeeOther)
		return
	}
	page := ProfilePage{Profile: profile, Permissions: profile.Permissions(), Admin: profile.IsAdmin()}
	if exp, err := api.TokenExpiry(api.TokenFromContext(r.Context())); err == nil && !exp.IsZero() {
		page.ExpiresAt = &exp
	}
	h.renderer.Render(w, r, "pages/profile.html", profile.DisplayName(), page, http.StatusOK)
}

func (h *Handler) handleLanguage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	back := SafeRedirect(r.PostFormValue("return"), "/")
	code := strings.ToLower(strings.TrimSpace(r.PostFormValue("language")))
	if !i18n.IsSupported(code) {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetLanguage(code)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// SafeRedirect returns target when it is a local path, otherwise fallback.
func SafeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return target
}
