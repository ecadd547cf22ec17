package shared

import "math"

// DefaultPerPage matches the backend's default page size.
const DefaultPerPage = 50

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata. A known totalPages from the
// backend wins over the computed one.
func NewPagination(page, perPage, total, totalPages int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	if totalPages <= 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// Prev is the previous page number.
func (p Pagination) Prev() int { return p.Page - 1 }

// Next is the next page number.
func (p Pagination) Next() int { return p.Page + 1 }

// From is the 1-based index of the first row on this page, 0 when empty.
func (p Pagination) From() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*p.PerPage + 1
}

// To is the 1-based index of the last row on this page.
func (p Pagination) To() int {
	to := p.Page * p.PerPage
	if to > p.Total {
		return p.Total
	}
	return to
}

// Window returns up to size page numbers centred on the current page.
func (p Pagination) Window(size int) []int {
	if p.TotalPages <= 0 || size <= 0 {
		return nil
	}
	if size > p.TotalPages {
		size = p.TotalPages
	}
	start := p.Page - size/2
	if start < 1 {
		start = 1
	}
	if start+size-1 > p.TotalPages {
		start = p.TotalPages - size + 1
	}
	pages := make([]int, size)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}
