// Package webtest builds the session, rendering and backend plumbing that
// handler tests share.
package webtest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/audit"
	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/rbac"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/view"
)

const cookieName = "dc_session_test"

func init() {
	if os.Getenv("DENGUECHAT_TEST_MODE") == "" {
		_ = os.Setenv("DENGUECHAT_TEST_MODE", "1")
	}
}

// Harness holds a miniredis-backed session store, a renderer and a backend
// client pointed at a stub server.
type Harness struct {
	t        *testing.T
	Logger   *slog.Logger
	Redis    *redis.Client
	Sessions *shared.SessionManager
	CSRF     *shared.CSRFManager
	Renderer *crud.Renderer
	Client   *api.Client
	Lookup   *lookup.Service
	Events   *Events

	cookie *http.Cookie
}

// New starts the stub backend serving backend and wires the harness.
func New(t *testing.T, backend http.Handler) *Harness {
	t.Helper()
	if backend == nil {
		backend = http.NotFoundHandler()
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	templates, err := view.NewEngine()
	require.NoError(t, err)
	client, err := api.NewClient(api.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	csrf := shared.NewCSRFManager("csrf-secret")
	return &Harness{
		t:        t,
		Logger:   logger,
		Redis:    rdb,
		Sessions: shared.NewSessionManager(rdb, cookieName, "session-secret", time.Hour, false),
		CSRF:     csrf,
		Renderer: &crud.Renderer{Logger: logger, Templates: templates, CSRF: csrf, Translator: i18n.NewTranslator()},
		Client:   client,
		Lookup:   lookup.NewService(client, lookup.NewCache(rdb, time.Minute), logger),
		Events:   &Events{},
	}
}

// Deps returns resource dependencies recording audit events in h.Events.
func (h *Harness) Deps() crud.Deps {
	return crud.Deps{
		Renderer: h.Renderer,
		Client:   h.Client,
		Lookup:   h.Lookup,
		Audit:    audit.NewRecorder(h.Events, nil, h.Logger),
		RBAC:     rbac.Middleware{Logger: h.Logger, Forbidden: h.Renderer.Forbidden()},
	}
}

// Router wraps routes with the session and sign-in plumbing of the app.
func (h *Harness) Router(routes func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(shared.SessionMiddleware(h.Sessions, h.Logger))
	r.Use(attachProfile)
	routes(r)
	return r
}

func attachProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		profile, ok := sess.Profile()
		token, err := sess.AccessToken()
		if !ok || err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := api.WithToken(r.Context(), token)
		ctx = shared.ContextWithProfile(ctx, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignIn stores a signed-in session and uses its cookie from now on.
func (h *Harness) SignIn(profile shared.Profile) {
	h.t.Helper()
	h.SignInWithToken(profile, Token(h.t, time.Now().Add(time.Hour)))
}

// SignInWithToken is SignIn with an explicit backend token.
func (h *Harness) SignInWithToken(profile shared.Profile, token string) {
	h.t.Helper()
	ctx := context.Background()
	sess, err := h.Sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(h.t, err)
	require.NoError(h.t, sess.SignIn(profile, token))
	rec := httptest.NewRecorder()
	require.NoError(h.t, h.Sessions.Commit(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	h.keepCookie(rec)
}

// Session loads the current session.
func (h *Harness) Session() *shared.Session {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	sess, err := h.Sessions.Load(context.Background(), req)
	require.NoError(h.t, err)
	return sess
}

// Get performs a GET request against handler.
func (h *Harness) Get(handler http.Handler, target string) *httptest.ResponseRecorder {
	return h.Do(handler, httptest.NewRequest(http.MethodGet, target, nil))
}

// Post submits form values against handler.
func (h *Harness) Post(handler http.Handler, target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.Do(handler, req)
}

// Do serves req with the current session cookie.
func (h *Harness) Do(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	h.keepCookie(rec)
	return rec
}

func (h *Harness) keepCookie(rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		if c.Name != cookieName {
			continue
		}
		if c.MaxAge < 0 {
			h.cookie = nil
			continue
		}
		h.cookie = c
	}
}

// Token signs a backend-style JWT expiring at exp.
func Token(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "7", ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

// Admin is a profile holding the admin role.
func Admin() shared.Profile {
	return shared.Profile{ID: "1", Username: "admin", FirstName: "Ada", Roles: []shared.ProfileRole{{Name: shared.RoleAdmin}}}
}

// Viewer is a profile holding only perms.
func Viewer(perms ...string) shared.Profile {
	return shared.Profile{ID: "2", Username: "viewer", Roles: []shared.ProfileRole{{Name: "viewer", Permissions: perms}}}
}

// Events captures audit events handed to the queue.
type Events struct {
	mu     sync.Mutex
	events []audit.Event
}

// EnqueueAudit implements audit.Enqueuer.
func (e *Events) EnqueueAudit(_ context.Context, ev audit.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

// All returns the captured events.
func (e *Events) All() []audit.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]audit.Event(nil), e.events...)
}

// JSONAPI writes body as a JSON:API response.
func JSONAPI(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
