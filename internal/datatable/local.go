package datatable

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// SortLocal returns rows stable-sorted by col. Values compare numerically
// when both parse as numbers, otherwise case-insensitively. OrderNone
// returns the rows unchanged.
func SortLocal[T any](rows []T, col Column[T], order Order) []T {
	out := slices.Clone(rows)
	if order == OrderNone {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := compareValues(col.sortValue(a), col.sortValue(b))
		if order == OrderDesc {
			return -c
		}
		return c
	})
	return out
}

// PageLocal returns the rows of the current page.
func PageLocal[T any](rows []T, s State) []T {
	p := s.Sync(len(rows))
	start := min(p.Offset(), len(rows))
	end := min(start+p.PerPage, len(rows))
	return rows[start:end]
}

// Local applies filtering, sorting and paging in memory for backends that
// return the whole collection. It returns the page and the filtered total.
func (d Definition[T]) Local(s State, rows []T) ([]T, int) {
	if s.Filtered() && d.Match != nil {
		rows = slices.DeleteFunc(slices.Clone(rows), func(row T) bool { return !d.Match(row, s) })
	}
	if s.Sort != "" && s.Order != OrderNone {
		if col, ok := d.column(s.Sort); ok {
			rows = SortLocal(rows, col, s.Order)
		}
	}
	return PageLocal(rows, s), len(rows)
}

func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		return cmp.Compare(fa, fb)
	}
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
