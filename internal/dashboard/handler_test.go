package dashboard

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/testing/webtest"
)

func newDashboardRouter(t *testing.T, backend http.Handler, reports ...Report) (*webtest.Harness, http.Handler) {
	t.Helper()
	h := webtest.New(t, backend)
	handler := NewHandler(h.Logger, h.Renderer, h.Client, []string{"green", "yellow", "red"}, reports)
	return h, h.Router(func(r chi.Router) {
		handler.MountPublic(r)
		handler.MountRoutes(r)
	})
}

func TestLandingRendersTitleOnce(t *testing.T) {
	h, router := newDashboardRouter(t, nil)

	rec := h.Get(router, WelcomePath)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	_, visible, ok := strings.Cut(body, "<body")
	require.True(t, ok)
	assert.Equal(t, 1, strings.Count(visible, "DengueChat+"))
	assert.Contains(t, body, "count is 0")
	assert.Contains(t, body, `href="/auth/login"`)
}

func TestCounterIncrementsPerClick(t *testing.T) {
	h, router := newDashboardRouter(t, nil)

	for range 3 {
		rec := h.Post(router, WelcomePath+"/count", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, WelcomePath, rec.Header().Get("Location"))
	}
	rec := h.Get(router, WelcomePath)
	assert.Contains(t, rec.Body.String(), "count is 3")
}

func TestHomeShowsTotalsAndMarksFailuresUnavailable(t *testing.T) {
	h, router := newDashboardRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page[size]"))
		switch {
		case r.URL.Path == "/teams":
			webtest.JSONAPI(w, http.StatusInternalServerError, `{"errors":[{"error_code":"generic","detail":"boom"}]}`)
		case r.URL.Path == "/visits" && r.URL.Query().Get("filter[status]") == "red":
			webtest.JSONAPI(w, http.StatusOK, `{"data":[],"meta":{"total":4}}`)
		case r.URL.Path == "/visits":
			webtest.JSONAPI(w, http.StatusOK, `{"data":[],"meta":{"total_count":12}}`)
		default:
			webtest.JSONAPI(w, http.StatusOK, `{"data":[],"meta":{"total":31}}`)
		}
	}))
	h.SignIn(webtest.Admin())

	rec := h.Get(router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Hello, Ada")
	assert.Contains(t, body, `<span class="value">31</span>`)
	assert.Contains(t, body, `<span class="value">12</span>`)
	assert.Contains(t, body, "value unavailable")
	assert.Contains(t, body, "Visits by status")
	assert.Contains(t, body, "</span> 4</li>")
}

func TestHomeHidesTotalsWithoutPermission(t *testing.T) {
	h, router := newDashboardRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)
		webtest.JSONAPI(w, http.StatusOK, `{"data":[],"meta":{"total":2}}`)
	}))
	h.SignIn(webtest.Viewer(shared.PermCitiesView))

	rec := h.Get(router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/posts"`)
	assert.NotContains(t, body, "Visits by status")
}

func TestHomeUnauthorizedSignsOut(t *testing.T) {
	h, router := newDashboardRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webtest.JSONAPI(w, http.StatusUnauthorized, `{"errors":[{"error_code":"unauthorized","detail":"expired"}]}`)
	}))
	h.SignIn(webtest.Admin())

	rec := h.Get(router, "/")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, ok := h.Session().Profile()
	assert.False(t, ok)
}

func TestReportsSkipUnconfiguredURLs(t *testing.T) {
	h, router := newDashboardRouter(t, nil,
		Report{Title: "Risk map", URL: "https://reports.example.org/risk"},
		Report{Title: "Breeding sites"},
	)
	h.SignIn(webtest.Viewer())

	rec := h.Get(router, "/reports")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `src="https://reports.example.org/risk"`)
	assert.NotContains(t, body, "Breeding sites")
}
