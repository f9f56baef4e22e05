package cities

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/denguechat/denguechat-admin/internal/audit"
	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/rbac"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

type neighborhoodInput struct {
	Name   string `json:"name" form:"name" validate:"required"`
	CityID string `json:"city_id" form:"city_id" validate:"required"`
}

type neighborhoodHandler struct {
	deps crud.Deps
}

func cityURL(cityID string) string {
	return Path + "/" + url.PathEscape(cityID)
}

func neighborhoodsURL(cityID string) string {
	return cityURL(cityID) + "/neighborhoods"
}

func (h *neighborhoodHandler) store(cityID string) crud.Store[Neighborhood] {
	return crud.Store[Neighborhood]{Client: h.deps.Client, Path: neighborhoodsURL(cityID)}
}

func (h *neighborhoodHandler) mount(r chi.Router) {
	r.Use(h.deps.RBAC.RequireAll(shared.PermCitiesEdit))
	r.Get("/new", h.newForm)
	r.Post("/", h.create)
	r.Get("/{nid}/edit", h.editForm)
	r.Post("/{nid}/edit", h.update)
	r.Post("/{nid}/delete", h.delete)
}

// section lists the neighborhoods of c on its detail page.
func (h *neighborhoodHandler) section(r *http.Request, c City) []crud.Section {
	editable := false
	if profile, ok := shared.ProfileFromContext(r.Context()); ok {
		editable = rbac.Can(profile, shared.PermCitiesEdit)
	}
	base := cityURL(c.ID)
	def := datatable.Definition[Neighborhood]{
		Path: base,
		Columns: []datatable.Column[Neighborhood]{
			{Key: "name", Label: "Name", Sortable: true, Value: func(n Neighborhood) string { return n.Name }},
		},
		DefaultSort: "name",
		RowID:       func(n Neighborhood) string { return n.ID },
	}
	if editable {
		def.Actions = func(n Neighborhood) []datatable.Action {
			item := neighborhoodsURL(c.ID) + "/" + url.PathEscape(n.ID)
			return []datatable.Action{
				{Label: "Edit", Href: item + "/edit"},
				{Label: "Delete", Href: item + "/delete", Method: "post", Confirm: "Delete " + n.Name + "?", Class: "danger"},
			}
		}
	}
	state := def.Parse(r.URL.Query())
	rows, total := def.Local(state, c.Neighborhoods)
	section := crud.Section{Heading: "Neighborhoods", Table: def.Build(state, rows, total)}
	if editable {
		section.NewURL = neighborhoodsURL(c.ID) + "/new"
	}
	return []crud.Section{section}
}

func neighborhoodForm(cityID string, n Neighborhood) *form.Form {
	return form.New("",
		form.Input("name", "Name").Require().WithValue(n.Name),
		form.Input("city_id", "").As(form.KindHidden).WithValue(cityID).Alias("city"),
	)
}

func (h *neighborhoodHandler) render(w http.ResponseWriter, r *http.Request, cityID, heading string, f *form.Form, status int) {
	h.deps.Renderer.Render(w, r, "pages/crud/form.html", heading, crud.FormPage{
		Heading:   heading,
		Form:      f,
		CancelURL: cityURL(cityID),
	}, status)
}

func (h *neighborhoodHandler) newForm(w http.ResponseWriter, r *http.Request) {
	cityID := chi.URLParam(r, "id")
	f := neighborhoodForm(cityID, Neighborhood{})
	f.Action = neighborhoodsURL(cityID)
	h.render(w, r, cityID, "New neighborhood", f, http.StatusOK)
}

func (h *neighborhoodHandler) create(w http.ResponseWriter, r *http.Request) {
	cityID := chi.URLParam(r, "id")
	f := neighborhoodForm(cityID, Neighborhood{})
	f.Action = neighborhoodsURL(cityID)
	h.save(w, r, cityID, "", f, "New neighborhood")
}

func (h *neighborhoodHandler) editForm(w http.ResponseWriter, r *http.Request) {
	cityID, id := chi.URLParam(r, "id"), chi.URLParam(r, "nid")
	n, err := h.store(cityID).Get(r.Context(), id)
	if err != nil {
		h.deps.Renderer.Fail(w, r, err)
		return
	}
	f := neighborhoodForm(cityID, n)
	f.Action = neighborhoodsURL(cityID) + "/" + url.PathEscape(id) + "/edit"
	h.render(w, r, cityID, "Edit neighborhood", f, http.StatusOK)
}

func (h *neighborhoodHandler) update(w http.ResponseWriter, r *http.Request) {
	cityID, id := chi.URLParam(r, "id"), chi.URLParam(r, "nid")
	f := neighborhoodForm(cityID, Neighborhood{})
	f.Action = neighborhoodsURL(cityID) + "/" + url.PathEscape(id) + "/edit"
	h.save(w, r, cityID, id, f, "Edit neighborhood")
}

// save creates the neighborhood when id is empty, otherwise updates it.
func (h *neighborhoodHandler) save(w http.ResponseWriter, r *http.Request, cityID, id string, f *form.Form, heading string) {
	if err := r.ParseForm(); err != nil {
		h.deps.Renderer.Error(w, r, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}
	f.Bind(r.PostForm)
	// The city comes from the URL, never from the submitted form.
	in := neighborhoodInput{Name: f.Value("name"), CityID: cityID}
	lang := h.deps.Renderer.Lang(r)
	if !f.Validate(in, h.deps.Renderer.Translator, lang) {
		h.render(w, r, cityID, heading, f, http.StatusUnprocessableEntity)
		return
	}
	store := h.store(cityID)
	action := audit.ActionUpdate
	var err error
	if id == "" {
		action = audit.ActionCreate
		var created Neighborhood
		created, err = store.Create(r.Context(), in)
		id = created.ID
	} else {
		_, err = store.Update(r.Context(), id, in)
	}
	if err != nil {
		if api.IsUnauthorized(err) {
			h.deps.Renderer.Fail(w, r, err)
			return
		}
		f.ApplyErrors(err, h.deps.Renderer.Translator, lang)
		h.render(w, r, cityID, heading, f, http.StatusUnprocessableEntity)
		return
	}
	h.recorded(r, action, id, in.Name)
	h.deps.Renderer.RedirectWithFlash(w, r, cityURL(cityID), "success", "Neighborhood saved")
}

func (h *neighborhoodHandler) delete(w http.ResponseWriter, r *http.Request) {
	cityID, id := chi.URLParam(r, "id"), chi.URLParam(r, "nid")
	if err := h.store(cityID).Delete(r.Context(), id); err != nil {
		if api.IsUnauthorized(err) {
			h.deps.Renderer.Fail(w, r, err)
			return
		}
		h.deps.Renderer.RedirectWithFlash(w, r, cityURL(cityID), "error", h.deps.Renderer.Message(r, err))
		return
	}
	h.recorded(r, audit.ActionDelete, id, id)
	h.deps.Renderer.RedirectWithFlash(w, r, cityURL(cityID), "success", "Neighborhood deleted")
}

func (h *neighborhoodHandler) recorded(r *http.Request, action, id, summary string) {
	h.deps.Audit.Record(r.Context(), audit.Event{
		Action:   action,
		Entity:   "neighborhood",
		EntityID: id,
		Summary:  summary,
		Meta:     map[string]any{"city_id": chi.URLParam(r, "id")},
	})
	if h.deps.Lookup != nil {
		h.deps.Lookup.Bump(r.Context(), lookup.Neighborhoods)
		h.deps.Lookup.Bump(r.Context(), lookup.Cities)
	}
}
