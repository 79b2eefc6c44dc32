package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pages(ns ...int) []Item {
	out := make([]Item, 0, len(ns))
	for _, n := range ns {
		if n == 0 {
			out = append(out, Ellipsis())
			continue
		}
		out = append(out, PageItem(n))
	}
	return out
}

func TestBuildWindow(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		want           []Item
	}{
		{"single page", 1, 1, pages(1)},
		{"five pages listed in full", 3, 5, pages(1, 2, 3, 4, 5)},
		{"middle of twenty", 7, 20, pages(1, 0, 6, 7, 8, 0, 20)},
		{"first page", 1, 20, pages(1, 2, 0, 20)},
		{"second page", 2, 20, pages(1, 2, 3, 0, 20)},
		{"third page no left gap", 3, 20, pages(1, 2, 3, 4, 0, 20)},
		{"fourth page left gap", 4, 20, pages(1, 0, 3, 4, 5, 0, 20)},
		{"last page", 20, 20, pages(1, 0, 19, 20)},
		{"next to last", 19, 20, pages(1, 0, 18, 19, 20)},
		{"six pages middle", 3, 6, pages(1, 2, 3, 4, 0, 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildWindow(tt.current, tt.total))
		})
	}
}

func TestBuildWindow_Invariants(t *testing.T) {
	for total := 1; total <= 30; total++ {
		for current := 1; current <= total; current++ {
			items := BuildWindow(current, total)

			assert.Equal(t, PageItem(1), items[0], "first page present (%d/%d)", current, total)
			assert.Equal(t, PageItem(total), items[len(items)-1], "last page present (%d/%d)", current, total)

			for i := 1; i < len(items); i++ {
				bothGaps := items[i].Kind == KindEllipsis && items[i-1].Kind == KindEllipsis
				assert.False(t, bothGaps, "consecutive ellipses (%d/%d)", current, total)
			}

			found := false
			for _, it := range items {
				if it.Kind == KindPage && it.Page == current {
					found = true
				}
			}
			assert.True(t, found, "current page present (%d/%d)", current, total)
		}
	}
}

func TestNewNav(t *testing.T) {
	nav := NewNav(1, 1)
	assert.False(t, nav.HasPrev)
	assert.False(t, nav.HasNext)
	assert.Equal(t, pages(1), nav.Items)

	nav = NavFor(NewMeta(100, 7, 5))
	assert.True(t, nav.HasPrev)
	assert.True(t, nav.HasNext)
	assert.Equal(t, "< 1 ... 6 [7] 8 ... 20 >", nav.String())

	assert.Equal(t, "- [1] 2 3 >", NewNav(1, 3).String())
	assert.Equal(t, "< 1 2 [3] -", NewNav(3, 3).String())
}
