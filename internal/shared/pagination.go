package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the zero-based index of the first row on the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// OutOfRange reports whether the page lies past the last page.
func (p Pagination) OutOfRange() bool {
	return p.TotalPages > 0 && p.Page > p.TotalPages
}

// Window returns up to size page numbers centred on the current page.
func (p Pagination) Window(size int) []int {
	if p.TotalPages == 0 || size <= 0 {
		return nil
	}
	start := p.Page - size/2
	if start < 1 {
		start = 1
	}
	end := start + size - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = end - size + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
