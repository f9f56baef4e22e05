package crud

import (
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

const (
	exportRateLimit  = 10
	exportRateWindow = time.Minute
)

// WriteCSV writes a header row followed by rows.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// exportURL keeps filters and sort but not paging.
func exportURL(base string, state datatable.State) string {
	q := state.Query()
	q.Del(datatable.ParamPage)
	q.Del(datatable.ParamSize)
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

func exportLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(exportRateLimit, exportRateWindow,
		httprate.WithKeyFuncs(exportRateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
}

func exportRateKey(r *http.Request) (string, error) {
	if profile, ok := shared.ProfileFromContext(r.Context()); ok && profile.ID != "" {
		return "user:" + profile.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// exportRows renders the current filtered and sorted view, unpaged.
func (res *Resource[T]) exportRows(r *http.Request) ([]string, [][]string, error) {
	state := res.Table.Parse(r.URL.Query())
	var items []T
	if res.Local {
		q := make(map[string][]string)
		if res.Scope != nil {
			res.Scope(r, q)
		}
		page, err := res.Store.All(r.Context(), q)
		if err != nil {
			return nil, nil, err
		}
		all := state.WithPage(1)
		all.Size = len(page.Items) + 1
		items, _ = res.Table.Local(all, page.Items)
	} else {
		q := res.Table.ServerQuery(state)
		if res.Scope != nil {
			res.Scope(r, q)
		}
		page, err := res.Store.All(r.Context(), q)
		if err != nil {
			return nil, nil, err
		}
		items = page.Items
	}
	headers := make([]string, 0, len(res.Table.Columns))
	for _, col := range res.Table.Columns {
		headers = append(headers, col.Label)
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, 0, len(res.Table.Columns))
		for _, col := range res.Table.Columns {
			value := ""
			if col.Value != nil {
				value = col.Value(item)
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

func (res *Resource[T]) exportCSV(w http.ResponseWriter, r *http.Request) {
	headers, rows, err := res.exportRows(r)
	if err != nil {
		res.Renderer.Fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Entity+`.csv"`)
	if err := WriteCSV(w, headers, rows); err != nil {
		res.Renderer.Logger.Warn("write csv", slog.Any("error", err))
	}
}

func (res *Resource[T]) exportPDF(w http.ResponseWriter, r *http.Request) {
	if res.PDF == nil {
		res.Renderer.Error(w, r, http.StatusNotImplemented, http.StatusText(http.StatusNotImplemented))
		return
	}
	headers, rows, err := res.exportRows(r)
	if err != nil {
		res.Renderer.Fail(w, r, err)
		return
	}
	html, err := res.Renderer.Templates.RenderBytes("pages/crud/print.html", res.Renderer.Data(r, res.Plural, PrintPage{
		Heading:     res.Plural,
		GeneratedAt: time.Now().Format("02 Jan 2006 15:04"),
		Headers:     headers,
		Rows:        rows,
	}))
	if err != nil {
		res.Renderer.Fail(w, r, err)
		return
	}
	pdf, err := res.PDF.RenderHTML(r.Context(), html)
	if err != nil {
		res.Renderer.Logger.Error("render pdf", slog.Any("error", err), slog.String("entity", res.Entity))
		res.Renderer.Error(w, r, http.StatusBadGateway, res.Renderer.T(r, i18n.CodeUnavailable))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Entity+`.pdf"`)
	if _, err := w.Write(pdf); err != nil {
		res.Renderer.Logger.Warn("write pdf", slog.Any("error", err))
	}
}

// Message is the translated, user-facing text of a failed backend call.
func (rd *Renderer) Message(r *http.Request, err error) string {
	f := &form.Form{}
	f.ApplyErrors(err, rd.Translator, rd.Lang(r))
	return strings.Join(f.Toasts, " ")
}
