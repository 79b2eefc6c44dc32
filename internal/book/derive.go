package book

import (
	"sort"
	"strings"

	"booktracker/internal/pagination"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Page is one page of a derived book list.
type Page struct {
	Items []Book          `json:"data"`
	Meta  pagination.Meta `json:"meta"`
}

// Derive runs the list pipeline over records: status filter, search, sort
// and pagination, in that order. It never modifies records and returns the
// same output for the same input.
//
// q.PageSize must be positive.
func Derive(records []Book, q Query) Page {
	selected := Select(records, q)
	return Paginate(selected, q.Page, q.PageSize)
}

// Select runs the filter, search and sort stages without paginating.
func Select(records []Book, q Query) []Book {
	out := FilterByStatus(records, q.Status)
	out = Search(out, q.Search)
	return Sort(out, q.Sort)
}

// FilterByStatus keeps the books whose status equals status. StatusAll and
// the empty status keep everything.
func FilterByStatus(records []Book, status Status) []Book {
	out := make([]Book, 0, len(records))
	for _, b := range records {
		if status == "" || status == StatusAll || b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

// Search keeps the books whose title or author contains the query,
// ignoring case and surrounding whitespace. A blank query keeps everything.
// Matching is per-rune lowercasing, the same rule as ILIKE, so "strasse"
// does not find "Straße".
func Search(records []Book, query string) []Book {
	needle := normalizeText(query)
	if needle == "" {
		return append([]Book(nil), records...)
	}

	out := make([]Book, 0, len(records))
	for _, b := range records {
		if strings.Contains(normalizeText(b.Title), needle) ||
			strings.Contains(normalizeText(b.Author), needle) {
			out = append(out, b)
		}
	}
	return out
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Sort returns a stably sorted copy of records.
//
// Text modes compare case- and accent-insensitively and leave ties in
// their original order. Rating modes break ties by title ascending,
// whichever direction the rating goes. Unknown modes return the input
// order.
func Sort(records []Book, mode SortMode) []Book {
	out := append([]Book(nil), records...)

	// A Collator keeps internal buffers and must not be shared. Loose
	// compares base letters only, like the book_loose collation in Postgres.
	coll := collate.New(language.Und, collate.Loose)
	cmp := coll.CompareString

	var less func(a, b Book) bool
	switch mode {
	case SortTitleAsc:
		less = func(a, b Book) bool { return cmp(a.Title, b.Title) < 0 }
	case SortTitleDesc:
		less = func(a, b Book) bool { return cmp(b.Title, a.Title) < 0 }
	case SortAuthorAsc:
		less = func(a, b Book) bool { return cmp(a.Author, b.Author) < 0 }
	case SortAuthorDesc:
		less = func(a, b Book) bool { return cmp(b.Author, a.Author) < 0 }
	case SortRatingAsc:
		less = func(a, b Book) bool {
			if a.Rating != b.Rating {
				return a.Rating < b.Rating
			}
			return cmp(a.Title, b.Title) < 0
		}
	case SortRatingDesc:
		less = func(a, b Book) bool {
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return cmp(a.Title, b.Title) < 0
		}
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Paginate cuts one page out of records and reports the corrected page.
// A page past the end yields the last page.
func Paginate(records []Book, page, pageSize int) Page {
	meta := pagination.NewMeta(len(records), page, pageSize)
	start, end := meta.Bounds()
	items := make([]Book, end-start)
	copy(items, records[start:end])
	return Page{Items: items, Meta: meta}
}
