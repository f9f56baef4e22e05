// Package organizations manages the organizations teams and users belong to.
package organizations

import (
	"net/http"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Path is the dashboard and backend path of the collection.
const Path = "/organizations"

// Organization is a participating organization.
type Organization struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type organizationInput struct {
	Name   string `json:"name" form:"name" validate:"required"`
	Active bool   `json:"active" form:"active"`
}

// NewResource wires the organization screens.
func NewResource(deps crud.Deps) *crud.Resource[Organization] {
	return &crud.Resource[Organization]{
		Deps:     deps,
		Entity:   "organization",
		Path:     Path,
		Singular: "Organization",
		Plural:   "Organizations",
		ViewPerm: shared.PermOrganizationsView,
		EditPerm: shared.PermOrganizationsEdit,
		Ops:      crud.OpAll,
		Store:    crud.Store[Organization]{Client: deps.Client, Path: Path},
		Table: datatable.Definition[Organization]{
			Path: Path,
			Columns: []datatable.Column[Organization]{
				{Key: "name", Label: "Name", Sortable: true, Value: func(o Organization) string { return o.Name }},
				{Key: "active", Label: "Active", Sortable: true, Value: func(o Organization) string { return crud.YesNo(o.Active) }},
			},
			Filters: []datatable.Filter{
				{Name: "q", Label: "Search", Kind: datatable.FilterText, Param: "search"},
				{Name: "active", Label: "Active", Kind: datatable.FilterBoolean},
			},
			DefaultSort: "name",
			RowID:       func(o Organization) string { return o.ID },
		},
		Label: func(o Organization) string { return o.Name },
		Bumps: []lookup.Kind{lookup.Organizations},
		Form: func(_ *http.Request, item *Organization) *form.Form {
			o := Organization{Active: true}
			if item != nil {
				o = *item
			}
			return form.New("",
				form.Input("name", "Name").Require().WithValue(o.Name),
				form.Input("active", "Active").As(form.KindCheckbox).WithValue(crud.Bool(o.Active)),
			)
		},
		Input: func(f *form.Form, _ bool) any {
			return organizationInput{Name: f.Value("name"), Active: f.Bool("active")}
		},
	}
}
