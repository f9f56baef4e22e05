// Package cities manages cities and the neighborhoods nested under them.
package cities

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Path is the dashboard and backend path of the collection.
const Path = "/cities"

// City groups neighborhoods.
type City struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	State         string         `json:"state"`
	Country       string         `json:"country"`
	Neighborhoods []Neighborhood `json:"neighborhoods"`
}

// Neighborhood is an area of a city.
type Neighborhood struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	City *crud.Ref `json:"city"`
}

type cityInput struct {
	Name    string `json:"name" form:"name" validate:"required"`
	State   string `json:"state,omitempty" form:"state"`
	Country string `json:"country" form:"country" validate:"required"`
}

// Handler serves the city screens and the nested neighborhood dialogs.
type Handler struct {
	res           *crud.Resource[City]
	neighborhoods *neighborhoodHandler
}

// NewHandler wires the city screens.
func NewHandler(deps crud.Deps) *Handler {
	res := &crud.Resource[City]{
		Deps:     deps,
		Entity:   "city",
		Path:     Path,
		Singular: "City",
		Plural:   "Cities",
		ViewPerm: shared.PermCitiesView,
		EditPerm: shared.PermCitiesEdit,
		Ops:      crud.OpAll,
		Store:    crud.Store[City]{Client: deps.Client, Path: Path, Include: "neighborhoods"},
		Table: datatable.Definition[City]{
			Path: Path,
			Columns: []datatable.Column[City]{
				{Key: "name", Label: "Name", Sortable: true, Value: func(c City) string { return c.Name },
					Link: func(c City) string { return Path + "/" + url.PathEscape(c.ID) }},
				{Key: "state", Label: "State", Sortable: true, Value: func(c City) string { return c.State }},
				{Key: "country", Label: "Country", Sortable: true, Value: func(c City) string { return c.Country }},
				{Key: "neighborhoods", Label: "Neighborhoods", Class: "numeric", Value: func(c City) string { return crud.Count(c.Neighborhoods) }},
			},
			Filters: []datatable.Filter{
				{Name: "q", Label: "Search", Kind: datatable.FilterText, Param: "search"},
			},
			DefaultSort: "name",
			RowID:       func(c City) string { return c.ID },
		},
		Label: func(c City) string { return c.Name },
		Bumps: []lookup.Kind{lookup.Cities},
		Form: func(_ *http.Request, item *City) *form.Form {
			var c City
			if item != nil {
				c = *item
			}
			return form.New("",
				form.Input("name", "Name").Require().WithValue(c.Name),
				form.Input("state", "State").WithValue(c.State),
				form.Input("country", "Country").Require().WithValue(c.Country),
			)
		},
		Input: func(f *form.Form, _ bool) any {
			return cityInput{Name: f.Value("name"), State: f.Value("state"), Country: f.Value("country")}
		},
	}
	h := &Handler{res: res, neighborhoods: &neighborhoodHandler{deps: deps}}
	res.Details = func(_ *http.Request, c City) []crud.Detail {
		return []crud.Detail{
			{Label: "State", Value: c.State},
			{Label: "Country", Value: c.Country},
		}
	}
	res.Sections = h.neighborhoods.section
	return h
}

// MountRoutes registers the city routes on a router scoped to Path.
func (h *Handler) MountRoutes(r chi.Router) {
	h.res.Mount(r)
	r.Route("/{id}/neighborhoods", h.neighborhoods.mount)
}
