// Package houseblocks manages the house blocks teams are assigned to.
package houseblocks

import (
	"net/http"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Path is the dashboard and backend path of the collection.
const Path = "/house_blocks"

// Block types.
const (
	TypeBlock         = "block"
	TypeFrenteAFrente = "frente_a_frente"
)

var blockTypes = []form.Option{
	{Value: TypeBlock, Label: "Block"},
	{Value: TypeFrenteAFrente, Label: "Frente a frente"},
}

func blockTypeLabel(v string) string {
	for _, opt := range blockTypes {
		if opt.Value == v {
			return opt.Label
		}
	}
	return v
}

// HouseBlock is a group of houses visited together.
type HouseBlock struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BlockType    string    `json:"blockType"`
	Neighborhood *crud.Ref `json:"neighborhood"`
	Team         *crud.Ref `json:"team"`
}

type houseBlockInput struct {
	Name           string `json:"name" form:"name" validate:"required"`
	BlockType      string `json:"block_type" form:"block_type" validate:"required,oneof=block frente_a_frente"`
	NeighborhoodID string `json:"neighborhood_id" form:"neighborhood_id" validate:"required"`
	TeamID         string `json:"team_id,omitempty" form:"team_id"`
}

// NewResource wires the house block screens.
func NewResource(deps crud.Deps) *crud.Resource[HouseBlock] {
	res := &crud.Resource[HouseBlock]{
		Deps:     deps,
		Entity:   "house_block",
		Path:     Path,
		Singular: "House block",
		Plural:   "House blocks",
		ViewPerm: shared.PermHouseBlocksView,
		EditPerm: shared.PermHouseBlocksEdit,
		Ops:      crud.OpAll,
		Store:    crud.Store[HouseBlock]{Client: deps.Client, Path: Path, Include: "neighborhood,team"},
		Table: datatable.Definition[HouseBlock]{
			Path: Path,
			Columns: []datatable.Column[HouseBlock]{
				{Key: "name", Label: "Name", Sortable: true, Value: func(b HouseBlock) string { return b.Name }},
				{Key: "block_type", Label: "Type", Sortable: true, Value: func(b HouseBlock) string { return blockTypeLabel(b.BlockType) }},
				{Key: "neighborhood", Label: "Neighborhood", Value: func(b HouseBlock) string { return b.Neighborhood.Label() }},
				{Key: "team", Label: "Team", Value: func(b HouseBlock) string { return b.Team.Label() }},
			},
			Filters: []datatable.Filter{
				{Name: "q", Label: "Search", Kind: datatable.FilterText, Param: "search"},
				{Name: "team", Label: "Team", Kind: datatable.FilterSelect, Param: "team_id"},
				{Name: "neighborhood", Label: "Neighborhood", Kind: datatable.FilterSelect, Param: "neighborhood_id"},
			},
			DefaultSort: "name",
			RowID:       func(b HouseBlock) string { return b.ID },
		},
		Label: func(b HouseBlock) string { return b.Name },
	}
	res.FilterOptions = func(r *http.Request) map[string][]form.Option {
		return map[string][]form.Option{
			"team":         deps.Lookup.MustOptions(r.Context(), lookup.Teams, crud.OrgScope(r)),
			"neighborhood": deps.Lookup.MustOptions(r.Context(), lookup.Neighborhoods, ""),
		}
	}
	res.Form = func(r *http.Request, item *HouseBlock) *form.Form {
		ctx := r.Context()
		b := HouseBlock{BlockType: TypeBlock}
		if item != nil {
			b = *item
		}
		return form.New("",
			form.Input("name", "Name").Require().WithValue(b.Name),
			form.Select("block_type", "Type", blockTypes).Require().WithValue(b.BlockType),
			form.Select("neighborhood_id", "Neighborhood", deps.Lookup.MustOptions(ctx, lookup.Neighborhoods, "")).
				Require().WithValue(b.Neighborhood.RefID()).Alias("neighborhood"),
			form.Select("team_id", "Team", deps.Lookup.MustOptions(ctx, lookup.Teams, crud.OrgScope(r))).
				WithValue(b.Team.RefID()).Alias("team"),
		)
	}
	res.Input = func(f *form.Form, _ bool) any {
		return houseBlockInput{
			Name:           f.Value("name"),
			BlockType:      f.Value("block_type"),
			NeighborhoodID: f.Value("neighborhood_id"),
			TeamID:         f.Value("team_id"),
		}
	}
	return res
}
