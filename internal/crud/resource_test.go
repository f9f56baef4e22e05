package crud_test

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/audit"
	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/testing/webtest"
)

type city struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

type cityInput struct {
	Name string `json:"name" form:"name" validate:"required"`
}

func cityResource(deps crud.Deps) *crud.Resource[city] {
	return &crud.Resource[city]{
		Deps:     deps,
		Entity:   "city",
		Path:     "/cities",
		Singular: "City",
		Plural:   "Cities",
		ViewPerm: "cities.view",
		EditPerm: "cities.edit",
		Ops:      crud.OpAll,
		Store:    crud.Store[city]{Client: deps.Client, Path: "/cities"},
		Table: datatable.Definition[city]{
			Path: "/cities",
			Columns: []datatable.Column[city]{
				{Key: "name", Label: "Name", Sortable: true, Value: func(c city) string { return c.Name }},
				{Key: "state", Label: "State", Value: func(c city) string { return c.State }},
			},
			Filters:     []datatable.Filter{{Name: "q", Label: "Search", Kind: datatable.FilterText, Param: "search"}},
			DefaultSort: "name",
			RowID:       func(c city) string { return c.ID },
		},
		Exports: true,
		Label:   func(c city) string { return c.Name },
		Form: func(_ *http.Request, item *city) *form.Form {
			var c city
			if item != nil {
				c = *item
			}
			return form.New("", form.Input("name", "Name").Require().WithValue(c.Name))
		},
		Input: func(f *form.Form, _ bool) any { return cityInput{Name: f.Value("name")} },
		Details: func(_ *http.Request, c city) []crud.Detail {
			return []crud.Detail{{Label: "State", Value: c.State}}
		},
	}
}

const cityPage = `{"data":[
	{"type":"cities","id":"1","attributes":{"name":"Rio","state":"RJ"}},
	{"type":"cities","id":"2","attributes":{"name":"Recife","state":"PE"}}],
	"meta":{"total":45}}`

func newCityRouter(t *testing.T, backend http.Handler) (*webtest.Harness, http.Handler) {
	t.Helper()
	h := webtest.New(t, backend)
	res := cityResource(h.Deps())
	return h, h.Router(func(r chi.Router) { r.Route("/cities", res.Mount) })
}

func TestListTranslatesStateIntoBackendQuery(t *testing.T) {
	var got url.Values
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		webtest.JSONAPI(w, http.StatusOK, cityPage)
	}))
	h.SignIn(webtest.Viewer("cities.view"))

	rec := h.Get(router, "/cities?page=2&sort=name&order=desc&q=+ri+")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", got.Get("page[number]"))
	assert.Equal(t, "20", got.Get("page[size]"))
	assert.Equal(t, "-name", got.Get("sort"))
	assert.Equal(t, "ri", got.Get("filter[search]"))

	body := rec.Body.String()
	assert.Contains(t, body, "Recife")
	assert.Contains(t, body, "/cities/export.csv")
	assert.NotContains(t, body, "/cities/new", "viewer cannot create")
}

func TestListRedirectsPastLastPage(t *testing.T) {
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webtest.JSONAPI(w, http.StatusOK, `{"data":[],"meta":{"total":45}}`)
	}))
	h.SignIn(webtest.Admin())

	rec := h.Get(router, "/cities?page=9&q=ri")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/cities", loc.Path)
	assert.Equal(t, "3", loc.Query().Get("page"))
	assert.Equal(t, "ri", loc.Query().Get("q"))
}

func TestListRequiresViewPermission(t *testing.T) {
	var calls atomic.Int32
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		webtest.JSONAPI(w, http.StatusOK, cityPage)
	}))
	h.SignIn(webtest.Viewer("visits.view"))

	rec := h.Get(router, "/cities")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, calls.Load())
}

func TestCreateValidatesBeforeCallingBackend(t *testing.T) {
	var calls atomic.Int32
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	h.SignIn(webtest.Admin())

	rec := h.Post(router, "/cities", url.Values{"name": {"  "}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Este campo es obligatorio.")
	assert.Zero(t, calls.Load())
}

func TestCreateShowsBackendFieldErrors(t *testing.T) {
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webtest.JSONAPI(w, http.StatusUnprocessableEntity,
			`{"errors":[{"error_code":"taken","detail":"taken","field":"name"},{"error_code":"mystery","detail":"?"}]}`)
	}))
	h.SignIn(webtest.Admin())

	rec := h.Post(router, "/cities", url.Values{"name": {"Rio"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ya está en uso.")
	assert.Contains(t, body, "Ocurrió un error. Inténtalo de nuevo.")
	assert.Contains(t, body, `value="Rio"`)
	assert.Empty(t, h.Events.All())
}

func TestCreateRecordsAuditAndFlashes(t *testing.T) {
	var payload string
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			b, _ := io.ReadAll(r.Body)
			payload = string(b)
			webtest.JSONAPI(w, http.StatusCreated, `{"data":{"type":"cities","id":"5","attributes":{"name":"Rio"}}}`)
			return
		}
		webtest.JSONAPI(w, http.StatusOK, cityPage)
	}))
	h.SignIn(webtest.Admin())

	rec := h.Post(router, "/cities", url.Values{"name": {"Rio"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cities", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"name":"Rio"}`, payload)

	events := h.Events.All()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionCreate, events[0].Action)
	assert.Equal(t, "city", events[0].Entity)
	assert.Equal(t, "5", events[0].EntityID)

	rec = h.Get(router, "/cities")
	assert.Contains(t, rec.Body.String(), "City created")
}

func TestDeleteFailureFlashesBackendMessage(t *testing.T) {
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			webtest.JSONAPI(w, http.StatusUnprocessableEntity, `{"errors":[{"error_code":"taken","detail":"in use"}]}`)
		default:
			webtest.JSONAPI(w, http.StatusOK, cityPage)
		}
	}))
	h.SignIn(webtest.Admin())

	rec := h.Post(router, "/cities/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, h.Events.All())
	rec = h.Get(router, "/cities")
	assert.Contains(t, rec.Body.String(), "Ya está en uso.")
}

func TestUnauthorizedBackendSignsOut(t *testing.T) {
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webtest.JSONAPI(w, http.StatusUnauthorized, `{"errors":[{"error_code":"unauthorized","detail":"expired"}]}`)
	}))
	h.SignIn(webtest.Admin())

	rec := h.Get(router, "/cities")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, crud.LoginPath, rec.Header().Get("Location"))
	_, ok := h.Session().Profile()
	assert.False(t, ok)
}

func TestExportCSVKeepsFiltersWithoutPaging(t *testing.T) {
	var got url.Values
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		webtest.JSONAPI(w, http.StatusOK, cityPage)
	}))
	h.SignIn(webtest.Viewer("cities.view"))

	rec := h.Get(router, "/cities/export.csv?q=r&page=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", got.Get("page[number]"))
	assert.Equal(t, "1000", got.Get("page[size]"))
	assert.Equal(t, "r", got.Get("filter[search]"))
	assert.Equal(t, "Name,State\nRio,RJ\nRecife,PE\n", rec.Body.String())
}

func TestExportPDFWithoutRendererIsNotImplemented(t *testing.T) {
	h, router := newCityRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webtest.JSONAPI(w, http.StatusOK, cityPage)
	}))
	h.SignIn(webtest.Admin())

	rec := h.Get(router, "/cities/export.pdf")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

// pagedCities serves total rows honouring page[number] and page[size].
func pagedCities(total int, calls *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		number, _ := strconv.Atoi(r.URL.Query().Get("page[number]"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page[size]"))
		var rows []string
		for i := (number-1)*size + 1; i <= min(number*size, total); i++ {
			rows = append(rows, fmt.Sprintf(`{"type":"cities","id":"%d","attributes":{"name":"c%d","state":"SP"}}`, i, i))
		}
		webtest.JSONAPI(w, http.StatusOK, fmt.Sprintf(`{"data":[%s],"meta":{"total":%d}}`, strings.Join(rows, ","), total))
	}
}

func TestExportCSVWalksEveryPage(t *testing.T) {
	var calls atomic.Int32
	h, router := newCityRouter(t, pagedCities(2500, &calls))
	h.SignIn(webtest.Admin())

	rec := h.Get(router, "/cities/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(3), calls.Load())
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2501)
	assert.Equal(t, "c2500,SP", lines[2500])
}

func TestExportCSVRefusesCollectionsOverTheLimit(t *testing.T) {
	var calls atomic.Int32
	h, router := newCityRouter(t, pagedCities(crud.MaxRows+1, &calls))
	h.SignIn(webtest.Admin())

	rec := h.Get(router, "/cities/export.csv")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hay demasiados registros.")
	assert.Equal(t, int32(1), calls.Load())
}
