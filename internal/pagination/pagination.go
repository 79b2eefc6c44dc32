package pagination

// Meta describes one page of a result set.
//
// Page is always the corrected ("safe") page: it never exceeds TotalPages,
// so a caller that asked for page 5 of a 3-page result gets Page == 3.
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewMeta computes the page count for total items and clamps page into
// [1, TotalPages]. pageSize must be positive; callers validate it at the
// boundary.
func NewMeta(total, page, pageSize int) Meta {
	if total < 0 {
		total = 0
	}
	totalPages := 1
	if pageSize > 0 && total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Meta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset is the number of items that precede the page.
func (m Meta) Offset() int {
	return (m.Page - 1) * m.PageSize
}

// Bounds returns the half-open slice range of the page within a result set
// of m.Total items.
func (m Meta) Bounds() (start, end int) {
	start = m.Offset()
	if start > m.Total {
		start = m.Total
	}
	end = start + m.PageSize
	if end > m.Total {
		end = m.Total
	}
	return start, end
}

// HasPrev reports whether a previous page exists.
func (m Meta) HasPrev() bool { return m.Page > 1 }

// HasNext reports whether a following page exists.
func (m Meta) HasNext() bool { return m.Page < m.TotalPages }
