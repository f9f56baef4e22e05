// Package visits lists field visits, shows each visit with its
// inspections and exports the filtered list.
package visits

import (
	"net/http"
	"net/url"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/inspections"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/rbac"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/view"
)

// Path is the dashboard and backend path of the collection.
const Path = "/visits"

// Statuses are the visit risk colors.
var Statuses = []string{"green", "yellow", "red"}

// Visit is one house visit by a field agent.
type Visit struct {
	ID              string                   `json:"id"`
	VisitedAt       string                   `json:"visitedAt"`
	Host            string                   `json:"host"`
	VisitPermission bool                     `json:"visitPermission"`
	Status          string                   `json:"status"`
	Notes           string                   `json:"notes"`
	House           *crud.Ref                `json:"house"`
	User            *crud.Ref                `json:"user"`
	Team            *crud.Ref                `json:"team"`
	Inspections     []inspections.Inspection `json:"inspections"`
}

type visitInput struct {
	Status          string `json:"status" form:"status" validate:"required,oneof=green yellow red"`
	Host            string `json:"host,omitempty" form:"host"`
	VisitPermission bool   `json:"visit_permission" form:"visit_permission"`
	Notes           string `json:"notes,omitempty" form:"notes"`
}

// Table declares the visits table.
func Table() datatable.Definition[Visit] {
	return datatable.Definition[Visit]{
		Path: Path,
		Columns: []datatable.Column[Visit]{
			{Key: "visited_at", Label: "Visited", Sortable: true, Value: func(v Visit) string { return view.FormatDate(v.VisitedAt) },
				SortValue: func(v Visit) string { return v.VisitedAt },
				Link:      func(v Visit) string { return Path + "/" + url.PathEscape(v.ID) }},
			{Key: "house", Label: "House", Value: func(v Visit) string { return v.House.Label() }},
			{Key: "host", Label: "Host", Sortable: true, Value: func(v Visit) string { return v.Host }},
			{Key: "user", Label: "Agent", Value: func(v Visit) string { return v.User.Label() }},
			{Key: "team", Label: "Team", Value: func(v Visit) string { return v.Team.Label() }},
			{Key: "status", Label: "Status", Sortable: true, Value: func(v Visit) string { return v.Status }},
			{Key: "inspections", Label: "Inspections", Class: "numeric", Value: func(v Visit) string { return crud.Count(v.Inspections) }},
		},
		Filters: []datatable.Filter{
			{Name: "status", Label: "Status", Kind: datatable.FilterMultiSelect, Options: statusOptions()},
			{Name: "team", Label: "Team", Kind: datatable.FilterSelect, Param: "team_id"},
			{Name: "from", Label: "From", Kind: datatable.FilterDate, Param: "visited_at_from"},
			{Name: "to", Label: "To", Kind: datatable.FilterDate, Param: "visited_at_to"},
		},
		DefaultSort:  "visited_at",
		DefaultOrder: datatable.OrderDesc,
		RowID:        func(v Visit) string { return v.ID },
	}
}

func statusOptions() []form.Option { return inspections.ColorOptions }

// NewResource wires the visit screens.
func NewResource(deps crud.Deps) *crud.Resource[Visit] {
	res := &crud.Resource[Visit]{
		Deps:     deps,
		Entity:   "visit",
		Path:     Path,
		Singular: "Visit",
		Plural:   "Visits",
		ViewPerm: shared.PermVisitsView,
		EditPerm: shared.PermVisitsEdit,
		Ops:      crud.OpUpdate | crud.OpDelete,
		Store:    crud.Store[Visit]{Client: deps.Client, Path: Path, Include: "house,user,team,inspections"},
		Table:    Table(),
		Exports:  true,
		Label:    func(v Visit) string { return v.House.Label() + " " + view.FormatDay(v.VisitedAt) },
	}
	res.FilterOptions = func(r *http.Request) map[string][]form.Option {
		return map[string][]form.Option{"team": deps.Lookup.MustOptions(r.Context(), lookup.Teams, crud.OrgScope(r))}
	}
	res.Form = func(_ *http.Request, item *Visit) *form.Form {
		var v Visit
		if item != nil {
			v = *item
		}
		return form.New("",
			form.Select("status", "Status", statusOptions()).Require().WithValue(v.Status),
			form.Input("host", "Host").WithValue(v.Host),
			form.Input("visit_permission", "Visit permitted").As(form.KindCheckbox).WithValue(crud.Bool(v.VisitPermission)),
			form.Input("notes", "Notes").As(form.KindTextarea).WithValue(v.Notes),
		)
	}
	res.Input = func(f *form.Form, _ bool) any {
		return visitInput{
			Status:          f.Value("status"),
			Host:            f.Value("host"),
			VisitPermission: f.Bool("visit_permission"),
			Notes:           f.Value("notes"),
		}
	}
	res.Details = details
	res.Sections = sections
	return res
}

func details(_ *http.Request, v Visit) []crud.Detail {
	return []crud.Detail{
		{Label: "Visited", Value: view.FormatDate(v.VisitedAt)},
		{Label: "House", Value: v.House.Label()},
		{Label: "Host", Value: v.Host},
		{Label: "Visit permitted", Value: crud.YesNo(v.VisitPermission)},
		{Label: "Agent", Value: v.User.Label()},
		{Label: "Team", Value: v.Team.Label()},
		{Label: "Status", Value: v.Status, Badge: true},
		{Label: "Notes", Value: v.Notes},
	}
}

func sections(r *http.Request, v Visit) []crud.Section {
	def := datatable.Definition[inspections.Inspection]{
		Path:    Path + "/" + url.PathEscape(v.ID),
		Columns: inspections.Columns(),
		RowID:   func(i inspections.Inspection) string { return i.ID },
	}
	if profile, ok := shared.ProfileFromContext(r.Context()); ok && rbac.Can(profile, shared.PermInspectionsEdit) {
		def.Actions = func(i inspections.Inspection) []datatable.Action {
			return []datatable.Action{{Label: "Edit color", Href: inspections.Path + "/" + url.PathEscape(i.ID) + "/edit"}}
		}
	}
	state := def.Parse(r.URL.Query())
	rows, total := def.Local(state, v.Inspections)
	return []crud.Section{{Heading: "Inspections", Table: def.Build(state, rows, total)}}
}
