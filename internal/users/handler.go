package users

import (
	"net/http"
	"net/url"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/view"
)

// Path is the dashboard and backend path of the collection.
const Path = "/users"

// NewResource wires the user screens.
func NewResource(deps crud.Deps) *crud.Resource[User] {
	res := &crud.Resource[User]{
		Deps:     deps,
		Entity:   "user",
		Path:     Path,
		Singular: "User",
		Plural:   "Users",
		ViewPerm: shared.PermUsersView,
		EditPerm: shared.PermUsersEdit,
		Ops:      crud.OpAll,
		Store:    crud.Store[User]{Client: deps.Client, Path: Path, Include: "roles,organization,team"},
		Table:    Table(),
		Label:    User.DisplayName,
		Bumps:    []lookup.Kind{lookup.Users},
	}
	res.FilterOptions = func(r *http.Request) map[string][]form.Option {
		return map[string][]form.Option{"role": deps.Lookup.MustOptions(r.Context(), lookup.Roles, "")}
	}
	res.Form = func(r *http.Request, item *User) *form.Form {
		return userForm(r, deps.Lookup, item)
	}
	res.Input = input
	res.Details = details
	return res
}

// Table declares the users table.
func Table() datatable.Definition[User] {
	return datatable.Definition[User]{
		Path: Path,
		Columns: []datatable.Column[User]{
			{Key: "name", Label: "Name", Sortable: true, SortKey: "first_name", Value: User.DisplayName,
				Link: func(u User) string { return Path + "/" + url.PathEscape(u.ID) }},
			{Key: "username", Label: "Username", Sortable: true, Value: func(u User) string { return u.Username }},
			{Key: "email", Label: "Email", Sortable: true, Value: func(u User) string { return u.Email }},
			{Key: "status", Label: "Status", Sortable: true, Value: func(u User) string { return u.Status }},
			{Key: "roles", Label: "Roles", Value: func(u User) string { return crud.Labels(u.Roles) }},
			{Key: "organization", Label: "Organization", Value: func(u User) string { return u.Organization.Label() }},
			{Key: "team", Label: "Team", Value: func(u User) string { return u.Team.Label() }},
			{Key: "created_at", Label: "Created", Sortable: true, Value: func(u User) string { return view.FormatDate(u.CreatedAt) }},
		},
		Filters: []datatable.Filter{
			{Name: "q", Label: "Search", Kind: datatable.FilterText, Param: "search", Placeholder: "Name, username or email"},
			{Name: "status", Label: "Status", Kind: datatable.FilterSelect, Options: statusOptions},
			{Name: "role", Label: "Role", Kind: datatable.FilterSelect, Param: "role_id"},
		},
		DefaultSort:  "created_at",
		DefaultOrder: datatable.OrderDesc,
		RowID:        func(u User) string { return u.ID },
	}
}

func userForm(r *http.Request, lk *lookup.Service, item *User) *form.Form {
	ctx := r.Context()
	scope := crud.OrgScope(r)
	var u User
	if item != nil {
		u = *item
	}
	status := u.Status
	if status == "" {
		status = StatusActive
	}
	password := form.Input("password", "Password").As(form.KindPassword)
	if item == nil {
		password = password.Require()
	} else {
		password = password.WithHelp("Leave blank to keep the current password.")
	}
	return form.New("",
		form.Input("first_name", "First name").Require().WithValue(u.FirstName),
		form.Input("last_name", "Last name").Require().WithValue(u.LastName),
		form.Input("username", "Username").Require().WithValue(u.Username),
		form.Input("email", "Email").As(form.KindEmail).Require().WithValue(u.Email),
		form.Input("phone", "Phone").WithValue(u.Phone),
		password,
		form.Select("status", "Status", statusOptions).Require().WithValue(status),
		form.MultipleSelect("role_ids", "Roles", lk.MustOptions(ctx, lookup.Roles, "")).WithValues(crud.IDs(u.Roles)).Alias("roles"),
		form.Select("organization_id", "Organization", lk.MustOptions(ctx, lookup.Organizations, "")).
			WithValue(u.Organization.RefID()).Alias("organization"),
		form.Select("team_id", "Team", lk.MustOptions(ctx, lookup.Teams, scope)).
			WithValue(u.Team.RefID()).Alias("team"),
	)
}

func input(f *form.Form, editing bool) any {
	base := userInput{
		FirstName:      f.Value("first_name"),
		LastName:       f.Value("last_name"),
		Username:       f.Value("username"),
		Email:          f.Value("email"),
		Phone:          f.Value("phone"),
		Status:         f.Value("status"),
		RoleIDs:        f.Values("role_ids"),
		OrganizationID: f.Value("organization_id"),
		TeamID:         f.Value("team_id"),
	}
	if base.RoleIDs == nil {
		base.RoleIDs = []string{}
	}
	if editing {
		return updateInput{userInput: base, Password: f.Value("password")}
	}
	return createInput{userInput: base, Password: f.Value("password")}
}

func details(_ *http.Request, u User) []crud.Detail {
	return []crud.Detail{
		{Label: "Username", Value: u.Username},
		{Label: "Email", Value: u.Email},
		{Label: "Phone", Value: u.Phone},
		{Label: "Status", Value: u.Status, Badge: true},
		{Label: "Roles", Value: crud.Labels(u.Roles)},
		{Label: "Organization", Value: u.Organization.Label()},
		{Label: "Team", Value: u.Team.Label()},
		{Label: "Created", Value: view.FormatDate(u.CreatedAt)},
	}
}
