// Package datatable implements the filtered, paginated and sortable tables
// shared by every list screen.
package datatable

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Order is a sort direction. The zero value means unsorted.
type Order string

const (
	OrderNone Order = ""
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// DefaultSize is the page size used when none is requested.
const DefaultSize = 20

// PageSizes are the selectable page sizes.
var PageSizes = []int{10, 20, 50, 100}

// Reserved dashboard query keys.
const (
	ParamPage  = "page"
	ParamSize  = "size"
	ParamSort  = "sort"
	ParamOrder = "order"
)

// State is the table position encoded in the dashboard URL.
type State struct {
	Page    int
	Size    int
	Sort    string
	Order   Order
	Filters map[string][]string

	// hasDefault records that the table sorts by default, so an explicit
	// "unsorted" must survive the round trip through the URL.
	hasDefault bool
}

// Value returns the first value of a filter.
func (s State) Value(name string) string {
	if vals := s.Filters[name]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Values returns all values of a filter.
func (s State) Values(name string) []string {
	return s.Filters[name]
}

// Filtered reports whether any filter is set.
func (s State) Filtered() bool {
	return len(s.Filters) > 0
}

// ToggleSort returns the state after clicking the header of key: an
// unsorted or different column sorts ascending, ascending flips to
// descending, descending clears the sort. The page resets to 1.
func (s State) ToggleSort(key string) State {
	next := s.clone()
	next.Page = 1
	switch {
	case s.Sort != key || s.Order == OrderNone:
		next.Sort, next.Order = key, OrderAsc
	case s.Order == OrderAsc:
		next.Order = OrderDesc
	default:
		next.Sort, next.Order = "", OrderNone
	}
	return next
}

// WithPage returns the state moved to page.
func (s State) WithPage(page int) State {
	next := s.clone()
	if page < 1 {
		page = 1
	}
	next.Page = page
	return next
}

// WithSize returns the state with a new page size, back on page 1.
func (s State) WithSize(size int) State {
	next := s.clone()
	next.Size = normalizeSize(size)
	next.Page = 1
	return next
}

// WithoutFilters clears every filter and returns to page 1.
func (s State) WithoutFilters() State {
	next := s.clone()
	next.Filters = map[string][]string{}
	next.Page = 1
	return next
}

// Sync computes pagination metadata for total rows.
func (s State) Sync(total int) shared.Pagination {
	return shared.NewPagination(s.Page, s.Size, total)
}

// Clamp moves the state onto the last page when the requested page lies
// beyond it. ok is false when the state was already in range.
func (s State) Clamp(total int) (State, bool) {
	p := s.Sync(total)
	if !p.OutOfRange() {
		return s, false
	}
	return s.WithPage(p.TotalPages), true
}

// Query encodes the state as dashboard URL parameters. Defaults are omitted.
func (s State) Query() url.Values {
	q := url.Values{}
	if s.Page > 1 {
		q.Set(ParamPage, strconv.Itoa(s.Page))
	}
	if s.Size != 0 && s.Size != DefaultSize {
		q.Set(ParamSize, strconv.Itoa(s.Size))
	}
	switch {
	case s.Sort != "" && s.Order != OrderNone:
		q.Set(ParamSort, s.Sort)
		q.Set(ParamOrder, string(s.Order))
	case s.hasDefault:
		q.Set(ParamSort, "")
	}
	for name, vals := range s.Filters {
		for _, v := range vals {
			q.Add(name, v)
		}
	}
	return q
}

// URL renders the state against base.
func (s State) URL(base string) string {
	q := s.Query()
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

func (s State) clone() State {
	next := s
	next.Filters = make(map[string][]string, len(s.Filters))
	for k, v := range s.Filters {
		next.Filters[k] = slices.Clone(v)
	}
	return next
}

func normalizeSize(size int) int {
	if slices.Contains(PageSizes, size) {
		return size
	}
	return DefaultSize
}

// parseState reads the reserved keys and the declared filters. Sort keys
// outside sortable are ignored.
func parseState(q url.Values, filters []Filter, sortable map[string]bool, defSort string, defOrder Order) State {
	s := State{Page: 1, Size: DefaultSize, Filters: map[string][]string{}, hasDefault: defSort != ""}
	if page, err := strconv.Atoi(q.Get(ParamPage)); err == nil && page > 0 {
		s.Page = page
	}
	if size, err := strconv.Atoi(q.Get(ParamSize)); err == nil {
		s.Size = normalizeSize(size)
	}
	sortKey := q.Get(ParamSort)
	order := Order(strings.ToLower(q.Get(ParamOrder)))
	switch {
	case sortKey != "" && sortable[sortKey] && (order == OrderAsc || order == OrderDesc):
		s.Sort, s.Order = sortKey, order
	case !q.Has(ParamSort) && defSort != "":
		s.Sort, s.Order = defSort, defOrder
		if s.Order == OrderNone {
			s.Order = OrderAsc
		}
	}
	for _, f := range filters {
		vals := cleanValues(q[f.Name], f.Kind)
		if len(vals) > 0 {
			s.Filters[f.Name] = vals
		}
	}
	return s
}

func cleanValues(raw []string, kind FilterKind) []string {
	var out []string
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if kind == FilterBoolean && v != "true" && v != "false" {
			continue
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
		if kind != FilterMultiSelect {
			break
		}
	}
	return out
}
