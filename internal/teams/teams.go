// Package teams manages field teams, their organization, neighborhood and
// members.
package teams

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
const Path = "/teams"

// Team is a field team.
type Team struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Active       bool       `json:"active"`
	CreatedAt    string     `json:"createdAt"`
	Organization *crud.Ref  `json:"organization"`
	Neighborhood *crud.Ref  `json:"neighborhood"`
	Members      []crud.Ref `json:"members"`
}

type teamInput struct {
	Name           string   `json:"name" form:"name" validate:"required"`
	OrganizationID string   `json:"organization_id" form:"organization_id" validate:"required"`
	NeighborhoodID string   `json:"neighborhood_id,omitempty" form:"neighborhood_id"`
	MemberIDs      []string `json:"member_ids" form:"member_ids"`
	Active         bool     `json:"active" form:"active"`
}

// Table declares the teams table.
func Table() datatable.Definition[Team] {
	return datatable.Definition[Team]{
		Path: Path,
		Columns: []datatable.Column[Team]{
			{Key: "name", Label: "Name", Sortable: true, Value: func(t Team) string { return t.Name },
				Link: func(t Team) string { return Path + "/" + url.PathEscape(t.ID) }},
			{Key: "organization", Label: "Organization", Value: func(t Team) string { return t.Organization.Label() }},
			{Key: "neighborhood", Label: "Neighborhood", Value: func(t Team) string { return t.Neighborhood.Label() }},
			{Key: "members", Label: "Members", Class: "numeric", Value: func(t Team) string { return crud.Count(t.Members) }},
			{Key: "active", Label: "Active", Sortable: true, Value: func(t Team) string { return crud.YesNo(t.Active) }},
			{Key: "created_at", Label: "Created", Sortable: true, Value: func(t Team) string { return view.FormatDay(t.CreatedAt) }},
		},
		Filters: []datatable.Filter{
			{Name: "q", Label: "Search", Kind: datatable.FilterText, Param: "search"},
			{Name: "organization", Label: "Organization", Kind: datatable.FilterSelect, Param: "organization_id"},
			{Name: "active", Label: "Active", Kind: datatable.FilterBoolean},
		},
		DefaultSort: "name",
		RowID:       func(t Team) string { return t.ID },
	}
}

// NewResource wires the team screens.
func NewResource(deps crud.Deps) *crud.Resource[Team] {
	res := &crud.Resource[Team]{
		Deps:     deps,
		Entity:   "team",
		Path:     Path,
		Singular: "Team",
		Plural:   "Teams",
		ViewPerm: shared.PermTeamsView,
		EditPerm: shared.PermTeamsEdit,
		Ops:      crud.OpAll,
		Store:    crud.Store[Team]{Client: deps.Client, Path: Path, Include: "organization,neighborhood,members"},
		Table:    Table(),
		Label:    func(t Team) string { return t.Name },
		Bumps:    []lookup.Kind{lookup.Teams, lookup.Users},
	}
	res.FilterOptions = func(r *http.Request) map[string][]form.Option {
		return map[string][]form.Option{"organization": deps.Lookup.MustOptions(r.Context(), lookup.Organizations, "")}
	}
	res.Form = func(r *http.Request, item *Team) *form.Form {
		ctx := r.Context()
		t := Team{Active: true}
		if item != nil {
			t = *item
		}
		orgID := t.Organization.RefID()
		if orgID == "" {
			orgID = crud.OrgScope(r)
		}
		return form.New("",
			form.Input("name", "Name").Require().WithValue(t.Name),
			form.Select("organization_id", "Organization", deps.Lookup.MustOptions(ctx, lookup.Organizations, "")).
				Require().WithValue(orgID).Alias("organization"),
			form.Select("neighborhood_id", "Neighborhood", deps.Lookup.MustOptions(ctx, lookup.Neighborhoods, "")).
				WithValue(t.Neighborhood.RefID()).Alias("neighborhood"),
			form.MultipleSelect("member_ids", "Members", deps.Lookup.MustOptions(ctx, lookup.Users, orgID)).
				WithValues(crud.IDs(t.Members)).Alias("members"),
			form.Input("active", "Active").As(form.KindCheckbox).WithValue(crud.Bool(t.Active)),
		)
	}
	res.Input = func(f *form.Form, _ bool) any {
		in := teamInput{
			Name:           f.Value("name"),
			OrganizationID: f.Value("organization_id"),
			NeighborhoodID: f.Value("neighborhood_id"),
			MemberIDs:      f.Values("member_ids"),
			Active:         f.Bool("active"),
		}
		if in.MemberIDs == nil {
			in.MemberIDs = []string{}
		}
		return in
	}
	res.Details = func(_ *http.Request, t Team) []crud.Detail {
		return []crud.Detail{
			{Label: "Organization", Value: t.Organization.Label()},
			{Label: "Neighborhood", Value: t.Neighborhood.Label()},
			{Label: "Members", Value: crud.Labels(t.Members)},
			{Label: "Active", Value: crud.YesNo(t.Active)},
			{Label: "Created", Value: view.FormatDate(t.CreatedAt)},
		}
	}
	return res
}
