package datatable

import (
	"slices"
	"strconv"

	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// pageWindow is the number of page links around the current page.
const pageWindow = 5

// Action is a row-level link or button.
type Action struct {
	Label string
	Href  string
	// Method "post" renders a CSRF-protected button instead of a link.
	Method  string
	Confirm string
	Class   string
}

// IsPost reports whether the action submits a form.
func (a Action) IsPost() bool { return a.Method == "post" }

// Header is one column heading.
type Header struct {
	Key      string
	Label    string
	Sortable bool
	// URL applies the next step of the sort cycle.
	URL   string
	Order Order
	Class string
}

// Indicator is the sort arrow of the header.
func (h Header) Indicator() string {
	switch h.Order {
	case OrderAsc:
		return "▲"
	case OrderDesc:
		return "▼"
	}
	return ""
}

// AriaSort is the aria-sort attribute value.
func (h Header) AriaSort() string {
	switch h.Order {
	case OrderAsc:
		return "ascending"
	case OrderDesc:
		return "descending"
	}
	return "none"
}

// Cell is one rendered value.
type Cell struct {
	Value string
	Link  string
	Class string
}

// Row is one rendered record.
type Row struct {
	ID      string
	Cells   []Cell
	Actions []Action
}

// PageLink points at one page of the table.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// SizeLink switches the page size.
type SizeLink struct {
	Size    int
	URL     string
	Current bool
}

// Pager is the pagination footer.
type Pager struct {
	Pagination shared.Pagination
	PrevURL    string
	NextURL    string
	FirstURL   string
	LastURL    string
	Pages      []PageLink
	Sizes      []SizeLink
	From       int
	To         int
}

// Hidden is a state parameter carried by the filter form.
type Hidden struct {
	Name  string
	Value string
}

// Table is the view model of a list screen.
type Table struct {
	Path       string
	Headers    []Header
	Rows       []Row
	Pager      Pager
	Filters    []form.Field
	Hidden     []Hidden
	ClearURL   string
	Filtered   bool
	HasActions bool
}

// Empty reports a table without rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Build turns one page of typed rows into the table view model.
func (d Definition[T]) Build(s State, items []T, total int) Table {
	t := Table{
		Path:     d.Path,
		Filtered: s.Filtered(),
		ClearURL: s.WithoutFilters().URL(d.Path),
	}
	for _, col := range d.Columns {
		h := Header{Key: col.Key, Label: col.Label, Sortable: col.Sortable, Class: col.Class}
		if col.Sortable {
			h.URL = s.ToggleSort(col.Key).URL(d.Path)
			if s.Sort == col.Key {
				h.Order = s.Order
			}
		}
		t.Headers = append(t.Headers, h)
	}
	for _, item := range items {
		row := Row{Cells: make([]Cell, 0, len(d.Columns))}
		if d.RowID != nil {
			row.ID = d.RowID(item)
		}
		for _, col := range d.Columns {
			cell := Cell{Class: col.Class}
			if col.Value != nil {
				cell.Value = col.Value(item)
			}
			if col.Link != nil {
				cell.Link = col.Link(item)
			}
			row.Cells = append(row.Cells, cell)
		}
		if d.Actions != nil {
			row.Actions = d.Actions(item)
			if len(row.Actions) > 0 {
				t.HasActions = true
			}
		}
		t.Rows = append(t.Rows, row)
	}
	t.Pager = d.pager(s, len(items), total)
	t.Filters = d.filterFields(s)
	t.Hidden = hiddenFields(s, d.Filters)
	return t
}

func (d Definition[T]) pager(s State, count, total int) Pager {
	p := s.Sync(total)
	pg := Pager{Pagination: p}
	if count > 0 {
		pg.From = p.Offset() + 1
		pg.To = p.Offset() + count
	}
	if p.HasPrev() {
		pg.PrevURL = s.WithPage(p.Page - 1).URL(d.Path)
		pg.FirstURL = s.WithPage(1).URL(d.Path)
	}
	if p.HasNext() {
		pg.NextURL = s.WithPage(p.Page + 1).URL(d.Path)
		pg.LastURL = s.WithPage(p.TotalPages).URL(d.Path)
	}
	for _, n := range p.Window(pageWindow) {
		pg.Pages = append(pg.Pages, PageLink{Number: n, URL: s.WithPage(n).URL(d.Path), Current: n == p.Page})
	}
	current := normalizeSize(s.Size)
	for _, size := range PageSizes {
		pg.Sizes = append(pg.Sizes, SizeLink{Size: size, URL: s.WithSize(size).URL(d.Path), Current: size == current})
	}
	return pg
}

func (d Definition[T]) filterFields(s State) []form.Field {
	fields := make([]form.Field, 0, len(d.Filters))
	for _, f := range d.Filters {
		placeholder := f.Placeholder
		var field form.Field
		switch f.Kind {
		case FilterSelect:
			if placeholder == "" {
				placeholder = "All"
			}
			field = form.Select(f.Name, f.Label, f.Options)
		case FilterMultiSelect:
			field = form.MultipleSelect(f.Name, f.Label, f.Options).WithValues(s.Values(f.Name))
		case FilterBoolean:
			if placeholder == "" {
				placeholder = "All"
			}
			opts := f.Options
			if len(opts) == 0 {
				opts = []form.Option{{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"}}
			}
			field = form.Select(f.Name, f.Label, opts)
		case FilterDate:
			field = form.Input(f.Name, f.Label).As(form.KindDate)
		default:
			field = form.Input(f.Name, f.Label)
		}
		if f.Kind != FilterMultiSelect {
			field = field.WithValue(s.Value(f.Name))
		}
		fields = append(fields, field.WithPlaceholder(placeholder))
	}
	return fields
}

// hiddenFields keeps sort and size when the filter form is submitted.
// The page is dropped so a new filter starts on page 1.
func hiddenFields(s State, filters []Filter) []Hidden {
	q := s.Query()
	q.Del(ParamPage)
	for _, f := range filters {
		q.Del(f.Name)
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var out []Hidden
	for _, k := range keys {
		for _, v := range q[k] {
			out = append(out, Hidden{Name: k, Value: v})
		}
	}
	return out
}

// Summary is the "from-to of total" text of the pager.
func (p Pager) Summary() string {
	if p.Pagination.Total == 0 {
		return "0"
	}
	return strconv.Itoa(p.From) + "–" + strconv.Itoa(p.To) + " / " + strconv.Itoa(p.Pagination.Total)
}
