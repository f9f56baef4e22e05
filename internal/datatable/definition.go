package datatable

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/denguechat/denguechat-admin/internal/form"
)

// FilterKind selects how a filter is rendered and sent to the backend.
type FilterKind int

const (
	FilterText FilterKind = iota
	FilterSelect
	FilterMultiSelect
	FilterBoolean
	FilterDate
)

// Filter declares one filter control of a table.
type Filter struct {
	// Name is the dashboard query key.
	Name  string
	Label string
	Kind  FilterKind
	// Param is the backend filter key; defaults to Name.
	Param       string
	Options     []form.Option
	Placeholder string
}

func (f Filter) param() string {
	if f.Param != "" {
		return f.Param
	}
	return f.Name
}

// Column declares one column over rows of type T.
type Column[T any] struct {
	Key      string
	Label    string
	Sortable bool
	// SortKey is the backend sort attribute; defaults to Key.
	SortKey string
	Value   func(T) string
	// SortValue overrides Value for client-side sorting.
	SortValue func(T) string
	Link      func(T) string
	Class     string
}

func (c Column[T]) sortKey() string {
	if c.SortKey != "" {
		return c.SortKey
	}
	return c.Key
}

func (c Column[T]) sortValue(row T) string {
	if c.SortValue != nil {
		return c.SortValue(row)
	}
	if c.Value != nil {
		return c.Value(row)
	}
	return ""
}

// Definition describes a table over rows of type T.
type Definition[T any] struct {
	// Path is the dashboard URL of the list screen.
	Path         string
	Columns      []Column[T]
	Filters      []Filter
	DefaultSort  string
	DefaultOrder Order
	RowID        func(T) string
	Actions      func(T) []Action
	// Match filters rows in client-side mode.
	Match func(T, State) bool
}

// Parse reads the table state from dashboard query parameters.
func (d Definition[T]) Parse(q url.Values) State {
	sortable := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if c.Sortable {
			sortable[c.Key] = true
		}
	}
	return parseState(q, d.Filters, sortable, d.DefaultSort, d.DefaultOrder)
}

// ServerQuery builds the backend query for state:
// page[number], page[size], sort=field or sort=-field, filter[param]=value.
// Multi-select values are comma joined.
func (d Definition[T]) ServerQuery(s State) url.Values {
	q := url.Values{}
	q.Set("page[number]", strconv.Itoa(max(s.Page, 1)))
	q.Set("page[size]", strconv.Itoa(normalizeSize(s.Size)))
	if s.Sort != "" && s.Order != OrderNone {
		key := s.Sort
		if col, ok := d.column(s.Sort); ok {
			key = col.sortKey()
		}
		if s.Order == OrderDesc {
			key = "-" + key
		}
		q.Set("sort", key)
	}
	for _, f := range d.Filters {
		vals := s.Filters[f.Name]
		if len(vals) == 0 {
			continue
		}
		key := "filter[" + f.param() + "]"
		if f.Kind == FilterMultiSelect {
			q.Set(key, strings.Join(vals, ","))
			continue
		}
		q.Set(key, vals[0])
	}
	return q
}

func (d Definition[T]) column(key string) (Column[T], bool) {
	for _, c := range d.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}
