package pagination

import (
	"strconv"
	"strings"
)

// maxPlainPages is the largest page count rendered without ellipses.
const maxPlainPages = 5

// Kind distinguishes page buttons from gap markers.
type Kind int

const (
	KindPage Kind = iota
	KindEllipsis
)

// Item is one element of a navigation window.
type Item struct {
	Kind Kind `json:"kind"`
	Page int  `json:"page,omitempty"`
}

// PageItem returns an Item pointing at page n.
func PageItem(n int) Item { return Item{Kind: KindPage, Page: n} }

// Ellipsis returns a gap marker.
func Ellipsis() Item { return Item{Kind: KindEllipsis} }

func (it Item) String() string {
	if it.Kind == KindEllipsis {
		return "..."
	}
	return strconv.Itoa(it.Page)
}

// BuildWindow lists the page buttons to show for the current page.
//
// Up to five pages are listed in full. Beyond that the first and last pages
// are always present, the current page is surrounded by at most one
// neighbour on each side, and gaps are marked with a single ellipsis.
func BuildWindow(current, total int) []Item {
	if total < 1 {
		total = 1
	}
	if total <= maxPlainPages {
		items := make([]Item, 0, total)
		for p := 1; p <= total; p++ {
			items = append(items, PageItem(p))
		}
		return items
	}

	start := max(2, current-1)
	end := min(total-1, current+1)

	items := make([]Item, 0, 7)
	items = append(items, PageItem(1))
	if start > 2 {
		items = append(items, Ellipsis())
	}
	for p := start; p <= end; p++ {
		items = append(items, PageItem(p))
	}
	if end < total-1 {
		items = append(items, Ellipsis())
	}
	items = append(items, PageItem(total))
	return items
}

// Nav bundles a window with the Prev/Next affordances.
type Nav struct {
	Current int    `json:"current"`
	Items   []Item `json:"items"`
	HasPrev bool   `json:"hasPrev"`
	HasNext bool   `json:"hasNext"`
}

// NewNav builds the navigation for current out of total pages.
func NewNav(current, total int) Nav {
	return Nav{
		Current: current,
		Items:   BuildWindow(current, total),
		HasPrev: current > 1,
		HasNext: current < total,
	}
}

// NavFor builds the navigation for a page's metadata.
func NavFor(m Meta) Nav {
	return NewNav(m.Page, m.TotalPages)
}

// String renders the navigation for a terminal, e.g. "< 1 ... 6 [7] 8 ... 20 >".
// Disabled arrows are shown as a dash.
func (n Nav) String() string {
	var b strings.Builder
	if n.HasPrev {
		b.WriteString("<")
	} else {
		b.WriteString("-")
	}
	for _, it := range n.Items {
		b.WriteByte(' ')
		if it.Kind == KindPage && it.Page == n.Current {
			b.WriteString("[" + it.String() + "]")
			continue
		}
		b.WriteString(it.String())
	}
	if n.HasNext {
		b.WriteString(" >")
	} else {
		b.WriteString(" -")
	}
	return b.String()
}
