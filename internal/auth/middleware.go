package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Authenticate attaches the signed-in profile and backend token to the
// request context. Sessions whose token expired are signed out.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		profile, ok := sess.Profile()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		token, err := sess.AccessToken()
		if err == nil {
			err = api.CheckToken(token, h.service.now())
		}
		if err != nil {
			h.logger.Info("session ended", slog.String("user", profile.Username), slog.Any("error", err))
			sess.SignOut()
			if errors.Is(err, api.ErrTokenExpired) {
				sess.AddFlash(shared.FlashMessage{Kind: "warning", Message: h.renderer.T(r, i18n.CodeUnauthorized)})
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := api.WithToken(r.Context(), token)
		ctx = shared.ContextWithProfile(ctx, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin redirects anonymous requests to the sign-in page, keeping
// the requested path for after sign in.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.ProfileFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		target := crud.LoginPath
		if r.Method == http.MethodGet && r.URL.Path != "/" {
			target += "?" + url.Values{paramNext: {r.URL.RequestURI()}}.Encode()
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
