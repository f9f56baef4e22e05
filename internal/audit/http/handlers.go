// Package audithttp serves the audit log screen and its CSV export.
package audithttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/denguechat/denguechat-admin/internal/audit"
	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/rbac"
	"github.com/denguechat/denguechat-admin/internal/view"
)

// Path is the audit log screen.
const Path = "/audit"

// Lister reads audit events newest first.
type Lister interface {
	Recent(ctx context.Context, f audit.Filters) ([]audit.Event, int, error)
}

var entityOptions = options("user", "role", "permission", "team", "organization", "city",
	"neighborhood", "house_block", "visit", "inspection", "post", "comment")

var actionOptions = options(audit.ActionCreate, audit.ActionUpdate, audit.ActionDelete)

func options(values ...string) []form.Option {
	out := make([]form.Option, 0, len(values))
	for _, v := range values {
		out = append(out, form.Option{Value: v, Label: v})
	}
	return out
}

// Handler serves the audit log.
type Handler struct {
	logger   *slog.Logger
	events   Lister
	renderer *crud.Renderer
	rbac     rbac.Middleware
	table    datatable.Definition[audit.Event]
}

// NewHandler builds the audit handler.
func NewHandler(logger *slog.Logger, events Lister, renderer *crud.Renderer, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, events: events, renderer: renderer, rbac: guard, table: table()}
}

func table() datatable.Definition[audit.Event] {
	return datatable.Definition[audit.Event]{
		Path: Path,
		Columns: []datatable.Column[audit.Event]{
			{Key: "at", Label: "When", Value: func(ev audit.Event) string { return view.FormatDate(ev.At.Format(time.RFC3339)) }},
			{Key: "actor", Label: "Actor", Value: func(ev audit.Event) string { return ev.Actor }},
			{Key: "action", Label: "Action", Value: func(ev audit.Event) string { return ev.Action }},
			{Key: "entity", Label: "Entity", Value: func(ev audit.Event) string { return ev.Entity }},
			{Key: "entity_id", Label: "ID", Value: func(ev audit.Event) string { return ev.EntityID }},
			{Key: "summary", Label: "Summary", Value: func(ev audit.Event) string { return ev.Summary }},
		},
		Filters: []datatable.Filter{
			{Name: "entity", Label: "Entity", Kind: datatable.FilterSelect, Options: entityOptions},
			{Name: "action", Label: "Action", Kind: datatable.FilterSelect, Options: actionOptions},
			{Name: "actor", Label: "Actor", Kind: datatable.FilterText},
		},
		RowID: func(ev audit.Event) string { return ev.ID.String() },
	}
}

func filters(state datatable.State) audit.Filters {
	p := state.Sync(0)
	return audit.Filters{
		Entity: state.Value("entity"),
		Action: state.Value("action"),
		Actor:  state.Value("actor"),
		Limit:  p.PerPage,
		Offset: p.Offset(),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	state := h.table.Parse(r.URL.Query())
	events, total, err := h.events.Recent(r.Context(), filters(state))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if clamped, moved := state.Clamp(total); moved {
		http.Redirect(w, r, clamped.URL(Path), http.StatusSeeOther)
		return
	}
	page := crud.ListPage{Heading: "Audit log", Table: h.table.Build(state, events, total)}
	page.ExportCSV = Path + "/export.csv"
	q := state.Query()
	q.Del(datatable.ParamPage)
	q.Del(datatable.ParamSize)
	if len(q) > 0 {
		page.ExportCSV += "?" + q.Encode()
	}
	h.renderer.Render(w, r, "pages/crud/list.html", page.Heading, page, http.StatusOK)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	state := h.table.Parse(r.URL.Query())
	f := filters(state)
	f.Limit, f.Offset = crud.MaxRows, 0
	events, total, err := h.events.Recent(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if total > crud.MaxRows {
		h.renderer.Fail(w, r, fmt.Errorf("%w: %d audit events", crud.ErrTooManyRows, total))
		return
	}
	headers := make([]string, 0, len(h.table.Columns))
	for _, col := range h.table.Columns {
		headers = append(headers, col.Label)
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		row := make([]string, 0, len(h.table.Columns))
		for _, col := range h.table.Columns {
			row = append(row, col.Value(ev))
		}
		rows = append(rows, row)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit.csv"`)
	if err := crud.WriteCSV(w, headers, rows); err != nil {
		h.logger.Warn("write audit csv", slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, audit.ErrStoreDisabled) {
		h.renderer.Error(w, r, http.StatusServiceUnavailable, "The audit log is not configured.")
		return
	}
	h.logger.Error("load audit log", slog.Any("error", err))
	h.renderer.Error(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
