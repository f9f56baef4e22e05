// Package permissions manages permission records. The backend returns the
// whole collection, so the table filters, sorts and pages in memory.
package permissions

import (
	"net/http"
	"strings"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Path is the dashboard and backend path of the collection.
const Path = "/permissions"

// Permission is a named grant on a resource action.
type Permission struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type permissionInput struct {
	Name     string `json:"name" form:"name" validate:"required"`
	Resource string `json:"resource" form:"resource" validate:"required"`
	Action   string `json:"action" form:"action" validate:"required"`
}

// Table declares the permissions table.
func Table() datatable.Definition[Permission] {
	return datatable.Definition[Permission]{
		Path: Path,
		Columns: []datatable.Column[Permission]{
			{Key: "name", Label: "Name", Sortable: true, Value: func(p Permission) string { return p.Name }},
			{Key: "resource", Label: "Resource", Sortable: true, Value: func(p Permission) string { return p.Resource }},
			{Key: "action", Label: "Action", Sortable: true, Value: func(p Permission) string { return p.Action }},
		},
		Filters: []datatable.Filter{
			{Name: "q", Label: "Search", Kind: datatable.FilterText},
		},
		DefaultSort: "name",
		RowID:       func(p Permission) string { return p.ID },
		Match:       match,
	}
}

func match(p Permission, s datatable.State) bool {
	q := strings.ToLower(s.Value("q"))
	if q == "" {
		return true
	}
	for _, v := range []string{p.Name, p.Resource, p.Action} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// NewResource wires the permission screens.
func NewResource(deps crud.Deps) *crud.Resource[Permission] {
	return &crud.Resource[Permission]{
		Deps:     deps,
		Entity:   "permission",
		Path:     Path,
		Singular: "Permission",
		Plural:   "Permissions",
		ViewPerm: shared.PermPermissionsView,
		EditPerm: shared.PermPermissionsEdit,
		Ops:      crud.OpAll,
		Store:    crud.Store[Permission]{Client: deps.Client, Path: Path},
		Table:    Table(),
		Local:    true,
		Label:    func(p Permission) string { return p.Name },
		Bumps:    []lookup.Kind{lookup.Permissions},
		Form: func(_ *http.Request, item *Permission) *form.Form {
			var p Permission
			if item != nil {
				p = *item
			}
			return form.New("",
				form.Input("name", "Name").Require().WithValue(p.Name),
				form.Input("resource", "Resource").Require().WithValue(p.Resource),
				form.Input("action", "Action").Require().WithValue(p.Action),
			)
		},
		Input: func(f *form.Form, _ bool) any {
			return permissionInput{Name: f.Value("name"), Resource: f.Value("resource"), Action: f.Value("action")}
		},
	}
}
