package auth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/testing/webtest"
)

func sessionBackend(t *testing.T, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SessionPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var creds Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret" {
			webtest.JSONAPI(w, http.StatusUnauthorized, `{"errors":[{"error_code":"invalid_credentials","detail":"bad login"}]}`)
			return
		}
		webtest.JSONAPI(w, http.StatusCreated, `{
			"data":{"type":"users","id":"7",
				"attributes":{"username":"ana","first_name":"Ana","last_name":"Souza","locale":"pt"},
				"relationships":{
					"roles":{"data":[{"type":"roles","id":"1"}]},
					"organization":{"data":{"type":"organizations","id":"3"}},
					"team":{"data":null}}},
			"included":[
				{"type":"roles","id":"1","attributes":{"name":"coordinator"},
				 "relationships":{"permissions":{"data":[{"type":"permissions","id":"9"}]}}},
				{"type":"permissions","id":"9","attributes":{"name":"Users.View"}},
				{"type":"organizations","id":"3","attributes":{"name":"Tariki"}}],
			"meta":{"jwt":"`+token+`"}}`)
	}
}

func newAuthRouter(t *testing.T, backend http.Handler) (*webtest.Harness, http.Handler) {
	t.Helper()
	h := webtest.New(t, backend)
	handler := NewHandler(h.Logger, NewService(NewRepository(h.Client)), h.Renderer, h.Sessions)
	router := chi.NewRouter()
	router.Use(shared.SessionMiddleware(h.Sessions, h.Logger))
	router.Use(handler.Authenticate)
	router.Route("/auth", handler.MountRoutes)
	handler.MountLanguage(router)
	router.Group(func(r chi.Router) {
		r.Use(RequireLogin)
		handler.MountAccount(r)
	})
	return h, router
}

func TestLoginStoresProfileAndToken(t *testing.T) {
	token := webtest.Token(t, time.Now().Add(time.Hour))
	h, router := newAuthRouter(t, sessionBackend(t, token))

	rec := h.Get(router, "/auth/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="username"`)
	anonymousID := h.Session().ID

	rec = h.Post(router, "/auth/login", url.Values{"username": {"ana"}, "password": {"secret"}, "next": {"/visits"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/visits", rec.Header().Get("Location"))

	sess := h.Session()
	assert.NotEqual(t, anonymousID, sess.ID)
	profile, ok := sess.Profile()
	require.True(t, ok)
	assert.Equal(t, "Ana Souza", profile.DisplayName())
	assert.Equal(t, "Tariki", profile.Organization)
	assert.True(t, profile.Can("users.view"))
	assert.Equal(t, "pt", sess.Language())
	stored, err := sess.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	rec = h.Get(router, "/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "users.view")
}

func TestLoginRejectedShowsTranslatedToast(t *testing.T) {
	h, router := newAuthRouter(t, sessionBackend(t, "unused"))

	rec := h.Post(router, "/auth/login", url.Values{"username": {"ana"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Usuario o contraseña incorrectos.")
	_, ok := h.Session().Profile()
	assert.False(t, ok)
}

func TestLoginValidatesRequiredFields(t *testing.T) {
	h, router := newAuthRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	}))
	rec := h.Post(router, "/auth/login", url.Values{"username": {"ana"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Este campo es obligatorio.")
}

func TestExpiredTokenSignsOut(t *testing.T) {
	h, router := newAuthRouter(t, nil)
	h.SignInWithToken(webtest.Admin(), webtest.Token(t, time.Now().Add(-time.Minute)))

	rec := h.Get(router, "/profile")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fprofile", rec.Header().Get("Location"))

	sess := h.Session()
	_, ok := sess.Profile()
	assert.False(t, ok)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "warning", flash.Kind)
}

func TestLogoutDestroysSession(t *testing.T) {
	h, router := newAuthRouter(t, nil)
	h.SignIn(webtest.Admin())

	rec := h.Post(router, "/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	_, ok := h.Session().Profile()
	assert.False(t, ok)
}

func TestLanguageSwitchKeepsLocalReturn(t *testing.T) {
	h, router := newAuthRouter(t, nil)

	rec := h.Post(router, "/language", url.Values{"language": {"en"}, "return": {"/reports"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/reports", rec.Header().Get("Location"))
	assert.Equal(t, "en", h.Session().Language())

	rec = h.Post(router, "/language", url.Values{"language": {"fr"}, "return": {"https://evil.example"}})
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "en", h.Session().Language())
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/visits?page=2", SafeRedirect("/visits?page=2", "/"))
	assert.Equal(t, "/", SafeRedirect("//evil.example", "/"))
	assert.Equal(t, "/", SafeRedirect("/\\evil.example", "/"))
	assert.Equal(t, "/", SafeRedirect("https://evil.example", "/"))
	assert.Equal(t, "/", SafeRedirect("", "/"))
}
