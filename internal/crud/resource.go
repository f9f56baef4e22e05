package crud

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/denguechat/denguechat-admin/internal/audit"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/rbac"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Ops selects the mutations a resource supports.
type Ops uint8

const (
	OpCreate Ops = 1 << iota
	OpUpdate
	OpDelete

	OpAll = OpCreate | OpUpdate | OpDelete
)

// PDFRenderer converts HTML into a PDF document.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Deps are the collaborators shared by every resource.
type Deps struct {
	Renderer *Renderer
	Client   *api.Client
	Lookup   *lookup.Service
	Audit    *audit.Recorder
	RBAC     rbac.Middleware
	PDF      PDFRenderer
}

// Resource wires list, detail, create, edit, delete and export screens for
// one backend collection.
type Resource[T any] struct {
	Deps

	// Entity names the resource in audit events.
	Entity   string
	Path     string
	Singular string
	Plural   string
	// ViewPerm guards the read screens; empty opens them to every
	// signed-in user.
	ViewPerm string
	EditPerm string
	Ops      Ops
	Store    Store[T]
	Table    datatable.Definition[T]
	// Local pages the whole collection in memory.
	Local bool
	// FilterOptions supplies per-request options of select filters, keyed
	// by filter name.
	FilterOptions func(r *http.Request) map[string][]form.Option
	// Scope adds fixed backend filters to every list request.
	Scope func(r *http.Request, q url.Values)
	// Form builds the create/edit form; item is nil on create.
	Form func(r *http.Request, item *T) *form.Form
	// Input turns a bound form into the backend payload. The payload's
	// `form` and `validate` tags drive validation.
	Input func(f *form.Form, editing bool) any
	// Details enables the detail page.
	Details  func(r *http.Request, item T) []Detail
	Sections func(r *http.Request, item T) []Section
	Label    func(T) string
	// RowActions are appended after edit and delete.
	RowActions func(r *http.Request, item T) []datatable.Action
	// Bumps are lookup kinds invalidated by mutations.
	Bumps   []lookup.Kind
	Exports bool
}

// Mount registers the resource routes on a router scoped to Path.
func (res *Resource[T]) Mount(r chi.Router) {
	r.Group(func(r chi.Router) {
		if res.ViewPerm != "" {
			r.Use(res.RBAC.RequireAny(res.ViewPerm, res.EditPerm))
		}
		r.Get("/", res.list)
		if res.Exports {
			r.Group(func(r chi.Router) {
				r.Use(exportLimiter())
				r.Get("/export.csv", res.exportCSV)
				r.Get("/export.pdf", res.exportPDF)
			})
		}
		if res.Details != nil {
			r.Get("/{id}", res.show)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(res.RBAC.RequireAll(res.EditPerm))
		if res.Ops&OpCreate != 0 {
			r.Get("/new", res.newForm)
			r.Post("/", res.create)
		}
		if res.Ops&OpUpdate != 0 {
			r.Get("/{id}/edit", res.editForm)
			r.Post("/{id}/edit", res.update)
		}
		if res.Ops&OpDelete != 0 {
			r.Post("/{id}/delete", res.delete)
		}
	})
}

func (res *Resource[T]) canEdit(r *http.Request) bool {
	profile, ok := shared.ProfileFromContext(r.Context())
	return ok && rbac.Can(profile, res.EditPerm)
}

func (res *Resource[T]) itemURL(id string) string {
	return res.Path + "/" + url.PathEscape(id)
}

func (res *Resource[T]) rowID(item T) string {
	if res.Table.RowID == nil {
		return ""
	}
	return res.Table.RowID(item)
}

func (res *Resource[T]) label(item T) string {
	if res.Label != nil {
		return res.Label(item)
	}
	return res.rowID(item)
}

// Fetch loads the rows of state and the total used for pagination.
func (res *Resource[T]) Fetch(r *http.Request, state datatable.State) ([]T, int, error) {
	if res.Local {
		q := url.Values{}
		if res.Scope != nil {
			res.Scope(r, q)
		}
		page, err := res.Store.All(r.Context(), q)
		if err != nil {
			return nil, 0, err
		}
		items, total := res.Table.Local(state, page.Items)
		return items, total, nil
	}
	q := res.Table.ServerQuery(state)
	if res.Scope != nil {
		res.Scope(r, q)
	}
	page, err := res.Store.List(r.Context(), q)
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

// Actions returns the row actions the request may use.
func (res *Resource[T]) Actions(r *http.Request) func(T) []datatable.Action {
	editable := res.canEdit(r)
	return func(item T) []datatable.Action {
		id := res.rowID(item)
		var actions []datatable.Action
		if editable && id != "" && res.Ops&OpUpdate != 0 {
			actions = append(actions, datatable.Action{Label: "Edit", Href: res.itemURL(id) + "/edit"})
		}
		if editable && id != "" && res.Ops&OpDelete != 0 {
			actions = append(actions, datatable.Action{
				Label:   "Delete",
				Href:    res.itemURL(id) + "/delete",
				Method:  "post",
				Confirm: "Delete " + res.label(item) + "?",
				Class:   "danger",
			})
		}
		if res.RowActions != nil {
			actions = append(actions, res.RowActions(r, item)...)
		}
		return actions
	}
}

func (res *Resource[T]) list(w http.ResponseWriter, r *http.Request) {
	state := res.Table.Parse(r.URL.Query())
	items, total, err := res.Fetch(r, state)
	if err != nil {
		res.Renderer.Fail(w, r, err)
		return
	}
	if clamped, moved := state.Clamp(total); moved {
		http.Redirect(w, r, clamped.URL(res.Path), http.StatusSeeOther)
		return
	}
	def := res.Table
	def.Actions = res.Actions(r)
	if res.FilterOptions != nil {
		def.Filters = withOptions(def.Filters, res.FilterOptions(r))
	}
	page := ListPage{Heading: res.Plural, Table: def.Build(state, items, total)}
	if res.Ops&OpCreate != 0 && res.canEdit(r) {
		page.NewURL = res.Path + "/new"
	}
	if res.Exports {
		page.ExportCSV = exportURL(res.Path+"/export.csv", state)
		page.ExportPDF = exportURL(res.Path+"/export.pdf", state)
	}
	res.Renderer.Render(w, r, "pages/crud/list.html", res.Plural, page, http.StatusOK)
}

func (res *Resource[T]) show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := res.Store.Get(r.Context(), id)
	if err != nil {
		res.Renderer.Fail(w, r, err)
		return
	}
	page := ShowPage{
		Heading: res.Singular + ": " + res.label(item),
		Details: res.Details(r, item),
		BackURL: res.Path,
	}
	if res.Sections != nil {
		page.Sections = res.Sections(r, item)
	}
	if res.canEdit(r) {
		if res.Ops&OpUpdate != 0 {
			page.EditURL = res.itemURL(id) + "/edit"
		}
		if res.Ops&OpDelete != 0 {
			page.DeleteURL = res.itemURL(id) + "/delete"
		}
	}
	res.Renderer.Render(w, r, "pages/crud/show.html", page.Heading, page, http.StatusOK)
}

func (res *Resource[T]) renderForm(w http.ResponseWriter, r *http.Request, heading string, f *form.Form, status int) {
	res.Renderer.Render(w, r, "pages/crud/form.html", heading, FormPage{
		Heading:   heading,
		Form:      f,
		CancelURL: res.Path,
	}, status)
}

func (res *Resource[T]) newForm(w http.ResponseWriter, r *http.Request) {
	f := res.Form(r, nil)
	f.Action = res.Path
	res.renderForm(w, r, "New "+strings.ToLower(res.Singular), f, http.StatusOK)
}

func (res *Resource[T]) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		res.Renderer.Error(w, r, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}
	heading := "New " + strings.ToLower(res.Singular)
	f := res.Form(r, nil)
	f.Action = res.Path
	f.Bind(r.PostForm)
	payload := res.Input(f, false)
	lang := res.Renderer.Lang(r)
	if !f.Validate(payload, res.Renderer.Translator, lang) {
		res.renderForm(w, r, heading, f, http.StatusUnprocessableEntity)
		return
	}
	created, err := res.Store.Create(r.Context(), payload)
	if err != nil {
		if api.IsUnauthorized(err) {
			res.Renderer.Fail(w, r, err)
			return
		}
		res.logFailure(r, "create", err)
		f.ApplyErrors(err, res.Renderer.Translator, lang)
		res.renderForm(w, r, heading, f, http.StatusUnprocessableEntity)
		return
	}
	id := res.rowID(created)
	res.afterMutation(r, audit.ActionCreate, id, res.label(created))
	res.Renderer.RedirectWithFlash(w, r, res.Path, "success", res.Singular+" created")
}

func (res *Resource[T]) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := res.Store.Get(r.Context(), id)
	if err != nil {
		res.Renderer.Fail(w, r, err)
		return
	}
	f := res.Form(r, &item)
	f.Action = res.itemURL(id) + "/edit"
	res.renderForm(w, r, "Edit "+strings.ToLower(res.Singular), f, http.StatusOK)
}

func (res *Resource[T]) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		res.Renderer.Error(w, r, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}
	id := chi.URLParam(r, "id")
	item, err := res.Store.Get(r.Context(), id)
	if err != nil {
		res.Renderer.Fail(w, r, err)
		return
	}
	heading := "Edit " + strings.ToLower(res.Singular)
	f := res.Form(r, &item)
	f.Action = res.itemURL(id) + "/edit"
	f.Bind(r.PostForm)
	payload := res.Input(f, true)
	lang := res.Renderer.Lang(r)
	if !f.Validate(payload, res.Renderer.Translator, lang) {
		res.renderForm(w, r, heading, f, http.StatusUnprocessableEntity)
		return
	}
	if _, err := res.Store.Update(r.Context(), id, payload); err != nil {
		if api.IsUnauthorized(err) {
			res.Renderer.Fail(w, r, err)
			return
		}
		res.logFailure(r, "update", err)
		f.ApplyErrors(err, res.Renderer.Translator, lang)
		res.renderForm(w, r, heading, f, http.StatusUnprocessableEntity)
		return
	}
	res.afterMutation(r, audit.ActionUpdate, id, res.label(item))
	res.Renderer.RedirectWithFlash(w, r, res.Path, "success", res.Singular+" updated")
}

func (res *Resource[T]) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := res.Store.Delete(r.Context(), id); err != nil {
		if api.IsUnauthorized(err) {
			res.Renderer.Fail(w, r, err)
			return
		}
		res.logFailure(r, "delete", err)
		res.Renderer.RedirectWithFlash(w, r, res.Path, "error", res.Renderer.Message(r, err))
		return
	}
	res.afterMutation(r, audit.ActionDelete, id, id)
	res.Renderer.RedirectWithFlash(w, r, res.Path, "success", res.Singular+" deleted")
}

func (res *Resource[T]) afterMutation(r *http.Request, action, id, summary string) {
	if id == "" {
		id = "unknown"
	}
	res.Audit.Record(r.Context(), audit.Event{
		Action:   action,
		Entity:   res.Entity,
		EntityID: id,
		Summary:  summary,
	})
	if res.Lookup != nil {
		for _, kind := range res.Bumps {
			res.Lookup.Bump(r.Context(), kind)
		}
	}
}

func (res *Resource[T]) logFailure(r *http.Request, op string, err error) {
	res.Renderer.Logger.Info("backend rejected mutation",
		slog.String("entity", res.Entity),
		slog.String("op", op),
		slog.Any("error", err),
		slog.String("request_id", requestID(r)))
}

func withOptions(filters []datatable.Filter, options map[string][]form.Option) []datatable.Filter {
	out := make([]datatable.Filter, len(filters))
	copy(out, filters)
	for i := range out {
		if opts, ok := options[out[i].Name]; ok {
			out[i].Options = opts
		}
	}
	return out
}
