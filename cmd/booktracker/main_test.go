package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"booktracker/internal/book"
	"booktracker/internal/pagination"
	"booktracker/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t     *testing.T
	data  string
	prefs string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{t: t, data: filepath.Join(dir, "books.json"), prefs: filepath.Join(dir, "prefs.ini")}
}

func (h *harness) run(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"-data", h.data, "-prefs", h.prefs}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestCLI_ListDefaults(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("list")
	assert.Contains(t, out, "The Hobbit")
	assert.Contains(t, out, "Harry Potter")
	assert.Contains(t, out, "(page 1 of 1, 2 books)")
	assert.Contains(t, out, "- [1] -")
}

func TestCLI_AddEditRateDelete(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("add", "-title", "Dune", "-author", "Frank Herbert", "-rating", "4")
	assert.Contains(t, out, `added "Dune"`)
	assert.Contains(t, out, "3 books")

	out = h.mustRun("list", "-search", "dune")
	assert.Contains(t, out, "★★★★☆")

	out = h.mustRun("status", "Dune|Frank Herbert", "Want", "to", "Read")
	assert.Contains(t, out, "Want to Read")

	repo, err := book.OpenMemoryRepo(h.data)
	require.NoError(t, err)
	var dune book.Book
	for _, b := range repo.Snapshot() {
		if b.Title == "Dune" {
			dune = b
		}
	}
	require.NotEmpty(t, dune.ID)
	assert.Equal(t, 0, dune.Rating, "want to read clears the rating")

	h.mustRun("edit", "-title", "Dune Messiah", "-author", "Frank Herbert", dune.ID)
	out = h.mustRun("list", "-search", "messiah")
	assert.Contains(t, out, "Dune Messiah")

	h.mustRun("rate", dune.ID, "5")
	out = h.mustRun("delete", dune.ID)
	assert.NotContains(t, out, "Dune")
	assert.Contains(t, out, "No books found.")
}

func TestCLI_EditSingleField(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("edit", "-title", "The Hobbit, or There and Back Again", "The Hobbit|J.R.R. Tolkien")
	assert.Contains(t, out, "There and Back Again")
	assert.Contains(t, out, "J.R.R. Tolkien", "author is kept")

	out = h.mustRun("edit", "-author", "Tolkien", "The Hobbit, or There and Back Again|J.R.R. Tolkien")
	assert.Contains(t, out, "There and Back Again")
	assert.NotContains(t, out, "J.R.R.")

	_, err := h.run("edit", "-title", "X", "Missing|Nobody")
	assert.ErrorContains(t, err, "book not found")
}

func TestCLI_PrefsPersist(t *testing.T) {
	h := newHarness(t)

	h.mustRun("list", "-status", "Read", "-sort", "author-desc")
	prefs, err := tracker.LoadPrefs(h.prefs)
	require.NoError(t, err)
	assert.Equal(t, book.StatusRead, prefs.Filter)
	assert.Equal(t, book.SortAuthorDesc, prefs.Sort)

	out := h.mustRun("list")
	assert.Contains(t, out, "filter: Read")
	assert.Contains(t, out, "Harry Potter")
	assert.NotContains(t, out, "The Hobbit")

	out = h.mustRun("list", "-status", "All")
	assert.Contains(t, out, "The Hobbit")
}

func TestCLI_PageBeyondEndIsCorrected(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("list", "-page", "9")
	assert.Contains(t, out, "(page 1 of 1, 2 books)")

	prefs, err := tracker.LoadPrefs(h.prefs)
	require.NoError(t, err)
	assert.Equal(t, 1, prefs.Page)
}

func TestCLI_Theme(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("theme")
	assert.Equal(t, "theme: light\n", out)

	out = h.mustRun("list")
	assert.NotContains(t, out, "\x1b[")

	out = h.mustRun("theme")
	assert.Equal(t, "theme: dark\n", out)
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("frobnicate")
	assert.ErrorContains(t, err, "unknown command")

	_, err = h.run("rate", "some-id", "lots")
	assert.ErrorContains(t, err, "not a number")

	_, err = h.run("rate", "no-such-id", "3")
	assert.ErrorContains(t, err, "book not found")

	_, err = h.run("add", "-author", "Nobody")
	assert.ErrorContains(t, err, "title is required")

	_, err = h.run("status", "x", "Skimmed")
	assert.ErrorContains(t, err, "unknown status")

	err = run(context.Background(), []string{"-server", "http://x", "-data", "y", "list"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	meta := pagination.NewMeta(1, 1, 5)
	render(&buf, tracker.View{
		Query: book.Query{Status: book.StatusAll, Sort: book.SortTitleAsc, Search: "emma", Page: 1, PageSize: 5},
		Items: []book.Book{{Title: "Emma", Author: "Jane Austen", Status: book.StatusWantToRead}},
		Meta:  meta,
		Nav:   pagination.NavFor(meta),
	}, tracker.ThemeLight)

	out := buf.String()
	assert.Contains(t, out, `filter: All  sort: title-asc  search: "emma"`)
	assert.Contains(t, out, "Emma")
	assert.Contains(t, out, "- [1] -  (page 1 of 1, 1 books)")
}

func TestParseIdentity(t *testing.T) {
	id, err := parseIdentity(" Dune | Frank Herbert ")
	require.NoError(t, err)
	title, author, ok := id.TitleAuthor()
	assert.True(t, ok)
	assert.Equal(t, "Dune", title)
	assert.Equal(t, "Frank Herbert", author)

	id, err = parseIdentity("abc")
	require.NoError(t, err)
	v, ok := id.ID()
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, err = parseIdentity("  ")
	assert.Error(t, err)
}
