package cities

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/audit"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/testing/webtest"
)

const cityDoc = `{"data":{"type":"cities","id":"4","attributes":{"name":"Asunción","country":"Paraguay"},
	"relationships":{"neighborhoods":{"data":[{"type":"neighborhoods","id":"10"},{"type":"neighborhoods","id":"11"}]}}},
	"included":[
		{"type":"neighborhoods","id":"10","attributes":{"name":"Tacumbú"}},
		{"type":"neighborhoods","id":"11","attributes":{"name":"Bañado Sur"}}]}`

func newCitiesRouter(t *testing.T, backend http.Handler) (*webtest.Harness, http.Handler) {
	t.Helper()
	h := webtest.New(t, backend)
	handler := NewHandler(h.Deps())
	return h, h.Router(func(r chi.Router) { r.Route(Path, handler.MountRoutes) })
}

func TestDetailListsNeighborhoodsSorted(t *testing.T) {
	h, router := newCitiesRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cities/4", r.URL.Path)
		assert.Equal(t, "neighborhoods", r.URL.Query().Get("include"))
		webtest.JSONAPI(w, http.StatusOK, cityDoc)
	}))
	h.SignIn(webtest.Viewer(shared.PermCitiesView))

	rec := h.Get(router, "/cities/4")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Tacumbú")
	assert.Less(t, strings.Index(body, "Bañado Sur"), strings.Index(body, "Tacumbú"))
	assert.NotContains(t, body, "/cities/4/neighborhoods/new", "viewers cannot add neighborhoods")
}

func TestCreateNeighborhoodUsesCityFromURL(t *testing.T) {
	var payload map[string]string
	h, router := newCitiesRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cities/4/neighborhoods", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		webtest.JSONAPI(w, http.StatusCreated, `{"data":{"type":"neighborhoods","id":"12","attributes":{"name":"Centro"}}}`)
	}))
	h.SignIn(webtest.Admin())

	rec := h.Post(router, "/cities/4/neighborhoods", url.Values{"name": {"Centro"}, "city_id": {"99"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cities/4", rec.Header().Get("Location"))
	assert.Equal(t, map[string]string{"name": "Centro", "city_id": "4"}, payload)

	events := h.Events.All()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionCreate, events[0].Action)
	assert.Equal(t, "neighborhood", events[0].Entity)
	assert.Equal(t, "12", events[0].EntityID)
}

func TestNeighborhoodMutationsNeedEditPermission(t *testing.T) {
	h, router := newCitiesRouter(t, nil)
	h.SignIn(webtest.Viewer(shared.PermCitiesView))

	rec := h.Post(router, "/cities/4/neighborhoods/10/delete", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, h.Events.All())
}
