package visits

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/testing/webtest"
)

func TestTableFiltersMapToBackendParams(t *testing.T) {
	def := Table()
	state := def.Parse(url.Values{
		"status": {"red", "yellow"},
		"team":   {"5"},
		"from":   {"2024-01-01"},
		"to":     {"2024-01-31"},
	})
	q := def.ServerQuery(state)
	assert.Equal(t, "red,yellow", q.Get("filter[status]"))
	assert.Equal(t, "5", q.Get("filter[team_id]"))
	assert.Equal(t, "2024-01-01", q.Get("filter[visited_at_from]"))
	assert.Equal(t, "2024-01-31", q.Get("filter[visited_at_to]"))
	assert.Equal(t, "-visited_at", q.Get("sort"))
}

const visitDoc = `{"data":{"type":"visits","id":"21","attributes":{"visited_at":"2024-03-02T10:00:00Z","host":"María","visit_permission":true,"status":"red"},
	"relationships":{"inspections":{"data":[{"type":"inspections","id":"31"}]}}},
	"included":[{"type":"inspections","id":"31","attributes":{"breeding_site":"Tanque","has_water":true,"was_chemically_treated":false,"color_code":"red"}}]}`

func TestDetailShowsInspections(t *testing.T) {
	h := webtest.New(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "house,user,team,inspections", r.URL.Query().Get("include"))
		webtest.JSONAPI(w, http.StatusOK, visitDoc)
	}))
	res := NewResource(h.Deps())
	router := h.Router(func(r chi.Router) { r.Route(Path, res.Mount) })
	h.SignIn(webtest.Viewer(shared.PermVisitsView, shared.PermInspectionsEdit))

	rec := h.Get(router, "/visits/21")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "María")
	assert.Contains(t, body, "Tanque")
	assert.Contains(t, body, "/inspections/31/edit")
	assert.NotContains(t, body, "/visits/21/edit", "visit edit needs visits.edit")
}

func TestVisitLinkEscapesID(t *testing.T) {
	link := Table().Columns[0].Link
	require.NotNil(t, link)
	assert.Equal(t, "/visits/21%2F..", link(Visit{ID: "21/.."}))
}
