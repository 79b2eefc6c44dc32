package book

import "strings"

// SortMode orders a book list.
type SortMode string

const (
	SortTitleAsc   SortMode = "title-asc"
	SortTitleDesc  SortMode = "title-desc"
	SortAuthorAsc  SortMode = "author-asc"
	SortAuthorDesc SortMode = "author-desc"
	SortRatingAsc  SortMode = "rating-asc"
	SortRatingDesc SortMode = "rating-desc"
)

// SortModes lists the supported sort modes.
var SortModes = []SortMode{
	SortTitleAsc, SortTitleDesc,
	SortAuthorAsc, SortAuthorDesc,
	SortRatingAsc, SortRatingDesc,
}

// Valid reports whether m is a supported sort mode.
func (m SortMode) Valid() bool {
	for _, known := range SortModes {
		if m == known {
			return true
		}
	}
	return false
}

// Pagination bounds accepted at the HTTP boundary.
const (
	DefaultPage     = 1
	MaxPage         = 10000
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// Query holds the view parameters of a book list.
type Query struct {
	// Status filters by reading status; empty or StatusAll keeps every book.
	Status   Status
	Search   string
	Sort     SortMode
	Page     int
	PageSize int
}

// DefaultQuery is the view shown before the user changes anything.
func DefaultQuery() Query {
	return Query{
		Status:   StatusAll,
		Sort:     SortTitleAsc,
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

// FiltersStatus reports whether the query restricts the status.
func (q Query) FiltersStatus() bool {
	return q.Status != "" && q.Status != StatusAll
}

// Normalize clamps page and page size into their accepted ranges and trims
// the search text. The sort mode is left as is: unknown modes mean
// "unsorted" to the derivation engine.
func (q Query) Normalize() Query {
	q.Search = strings.TrimSpace(q.Search)
	q.Page = clamp(q.Page, 1, MaxPage, DefaultPage)
	q.PageSize = clamp(q.PageSize, 1, MaxPageSize, DefaultPageSize)
	if !q.FiltersStatus() {
		q.Status = StatusAll
	}
	return q
}

// clamp bounds v to [lo, hi]; a zero v takes def.
func clamp(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
