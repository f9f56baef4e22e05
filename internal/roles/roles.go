// Package roles manages backend roles and the permissions they grant.
package roles

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Path is the dashboard and backend path of the collection.
const Path = "/roles"

// Role groups permissions.
type Role struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Permissions []crud.Ref `json:"permissions"`
}

type roleInput struct {
	Name          string   `json:"name" form:"name" validate:"required"`
	Description   string   `json:"description,omitempty" form:"description"`
	PermissionIDs []string `json:"permission_ids" form:"permission_ids"`
}

// NewResource wires the role screens.
func NewResource(deps crud.Deps) *crud.Resource[Role] {
	res := &crud.Resource[Role]{
		Deps:     deps,
		Entity:   "role",
		Path:     Path,
		Singular: "Role",
		Plural:   "Roles",
		ViewPerm: shared.PermRolesView,
		EditPerm: shared.PermRolesEdit,
		Ops:      crud.OpAll,
		Store:    crud.Store[Role]{Client: deps.Client, Path: Path, Include: "permissions"},
		Table: datatable.Definition[Role]{
			Path: Path,
			Columns: []datatable.Column[Role]{
				{Key: "name", Label: "Name", Sortable: true, Value: func(r Role) string { return r.Name },
					Link: func(r Role) string { return Path + "/" + url.PathEscape(r.ID) }},
				{Key: "description", Label: "Description", Value: func(r Role) string { return r.Description }},
				{Key: "permissions", Label: "Permissions", Class: "numeric", Value: func(r Role) string { return crud.Count(r.Permissions) }},
			},
			Filters: []datatable.Filter{
				{Name: "q", Label: "Search", Kind: datatable.FilterText, Param: "search"},
			},
			DefaultSort: "name",
			RowID:       func(r Role) string { return r.ID },
		},
		Label: func(r Role) string { return r.Name },
		Bumps: []lookup.Kind{lookup.Roles},
	}
	res.Form = func(r *http.Request, item *Role) *form.Form {
		var role Role
		if item != nil {
			role = *item
		}
		return form.New("",
			form.Input("name", "Name").Require().WithValue(role.Name),
			form.Input("description", "Description").As(form.KindTextarea).WithValue(role.Description),
			form.MultipleSelect("permission_ids", "Permissions", deps.Lookup.MustOptions(r.Context(), lookup.Permissions, "")).
				WithValues(crud.IDs(role.Permissions)).Alias("permissions"),
		)
	}
	res.Input = func(f *form.Form, _ bool) any {
		in := roleInput{Name: f.Value("name"), Description: f.Value("description"), PermissionIDs: f.Values("permission_ids")}
		if in.PermissionIDs == nil {
			in.PermissionIDs = []string{}
		}
		return in
	}
	res.Details = func(_ *http.Request, r Role) []crud.Detail {
		return []crud.Detail{
			{Label: "Description", Value: r.Description},
			{Label: "Permissions", Value: strconv.Itoa(len(r.Permissions)) + ": " + crud.Labels(r.Permissions)},
		}
	}
	return res
}
