// Package inspections lists container inspections recorded during visits
// and lets coordinators correct their color code.
package inspections

import (
	"net/http"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/view"
)

// Path is the dashboard and backend path of the collection.
const Path = "/inspections"

// ColorOptions are the risk colors of inspections and visits.
var ColorOptions = []form.Option{
	{Value: "green", Label: "Green"},
	{Value: "yellow", Label: "Yellow"},
	{Value: "red", Label: "Red"},
}

// Inspection is one inspected container.
type Inspection struct {
	ID                   string    `json:"id"`
	BreedingSite         string    `json:"breedingSite"`
	HasWater             bool      `json:"hasWater"`
	ContainerProtection  crud.Text `json:"containerProtection"`
	WasChemicallyTreated crud.Text `json:"wasChemicallyTreated"`
	ColorCode            string    `json:"colorCode"`
	CreatedAt            string    `json:"createdAt"`
	Visit                *crud.Ref `json:"visit"`
}

type colorInput struct {
	ColorCode string `json:"color_code" form:"color_code" validate:"required,oneof=green yellow red"`
}

// Columns are shared by the inspections list and the visit detail page.
func Columns() []datatable.Column[Inspection] {
	return []datatable.Column[Inspection]{
		{Key: "breeding_site", Label: "Breeding site", Sortable: true, Value: func(i Inspection) string { return i.BreedingSite }},
		{Key: "has_water", Label: "Has water", Sortable: true, Value: func(i Inspection) string { return crud.YesNo(i.HasWater) }},
		{Key: "container_protection", Label: "Protection", Value: func(i Inspection) string { return i.ContainerProtection.String() }},
		{Key: "was_chemically_treated", Label: "Chemically treated", Value: func(i Inspection) string { return i.WasChemicallyTreated.String() }},
		{Key: "color_code", Label: "Color", Sortable: true, Value: func(i Inspection) string { return i.ColorCode }},
	}
}

// Table declares the inspections list.
func Table() datatable.Definition[Inspection] {
	cols := append([]datatable.Column[Inspection]{
		{Key: "visit", Label: "Visit", Value: func(i Inspection) string { return i.Visit.RefID() },
			Link: func(i Inspection) string {
				if i.Visit == nil {
					return ""
				}
				return "/visits/" + i.Visit.ID
			}},
	}, Columns()...)
	cols = append(cols, datatable.Column[Inspection]{
		Key: "created_at", Label: "Recorded", Sortable: true, Value: func(i Inspection) string { return view.FormatDate(i.CreatedAt) },
	})
	return datatable.Definition[Inspection]{
		Path:    Path,
		Columns: cols,
		Filters: []datatable.Filter{
			{Name: "color", Label: "Color", Kind: datatable.FilterMultiSelect, Param: "color_code", Options: ColorOptions},
			{Name: "breeding_site", Label: "Breeding site", Kind: datatable.FilterText},
		},
		DefaultSort:  "created_at",
		DefaultOrder: datatable.OrderDesc,
		RowID:        func(i Inspection) string { return i.ID },
	}
}

// NewResource wires the inspection screens.
func NewResource(deps crud.Deps) *crud.Resource[Inspection] {
	return &crud.Resource[Inspection]{
		Deps:     deps,
		Entity:   "inspection",
		Path:     Path,
		Singular: "Inspection",
		Plural:   "Inspections",
		ViewPerm: shared.PermInspectionsView,
		EditPerm: shared.PermInspectionsEdit,
		Ops:      crud.OpUpdate,
		Store:    crud.Store[Inspection]{Client: deps.Client, Path: Path, Include: "visit"},
		Table:    Table(),
		Exports:  true,
		Label:    func(i Inspection) string { return i.BreedingSite },
		Form: func(_ *http.Request, item *Inspection) *form.Form {
			var color string
			if item != nil {
				color = item.ColorCode
			}
			f := form.New("",
				form.Select("color_code", "Color", ColorOptions).Require().WithValue(color),
			)
			if item != nil {
				f.Fields[0] = f.Fields[0].WithHelp(item.BreedingSite)
			}
			return f
		},
		Input: func(f *form.Form, _ bool) any {
			return colorInput{ColorCode: f.Value("color_code")}
		},
	}
}
