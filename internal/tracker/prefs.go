package tracker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"booktracker/internal/book"

	"gopkg.in/ini.v1"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Prefs is the view state remembered between runs.
type Prefs struct {
	Filter book.Status
	Sort   book.SortMode
	Search string
	Page   int
	Theme  Theme
}

func DefaultPrefs() Prefs {
	q := book.DefaultQuery()
	return Prefs{Filter: q.Status, Sort: q.Sort, Page: q.Page, Theme: ThemeDark}
}

// ToggleTheme switches between dark and light.
func (p *Prefs) ToggleTheme() {
	if p.Theme == ThemeLight {
		p.Theme = ThemeDark
		return
	}
	p.Theme = ThemeLight
}

// Query returns the list query the preferences describe.
func (p Prefs) Query() book.Query {
	q := book.DefaultQuery()
	q.Status = p.Filter
	q.Sort = p.Sort
	q.Search = p.Search
	q.Page = p.Page
	return q
}

// LoadPrefs reads preferences from an ini file. A missing file yields the
// defaults, and so does any single value that does not parse.
func LoadPrefs(path string) (Prefs, error) {
	p := DefaultPrefs()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return p, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return p, fmt.Errorf("load preferences %s: %w", path, err)
	}
	sec := f.Section("")

	if v := book.Status(sec.Key("filter").String()); v.Valid() || v == book.StatusAll {
		p.Filter = v
	}
	if v := book.SortMode(sec.Key("sort").String()); v.Valid() {
		p.Sort = v
	}
	p.Search = sec.Key("search").String()
	if v, err := sec.Key("page").Int(); err == nil && v >= 1 {
		p.Page = v
	}
	if v := Theme(sec.Key("theme").String()); v == ThemeDark || v == ThemeLight {
		p.Theme = v
	}
	return p, nil
}

// SavePrefs writes p to an ini file, creating its directory.
func SavePrefs(path string, p Prefs) error {
	f := ini.Empty()
	sec := f.Section("")
	sec.Key("filter").SetValue(string(p.Filter))
	sec.Key("sort").SetValue(string(p.Sort))
	sec.Key("search").SetValue(p.Search)
	sec.Key("page").SetValue(strconv.Itoa(p.Page))
	sec.Key("theme").SetValue(string(p.Theme))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	return f.SaveTo(path)
}
