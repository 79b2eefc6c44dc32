package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"booktracker/internal/book"
	"booktracker/internal/pagination"
)

// Source is where a session reads and writes books: the book service for
// a local library, client.Source for a remote one.
type Source interface {
	List(ctx context.Context, q book.Query) (book.Page, error)
	Create(ctx context.Context, d book.Draft) (book.Book, error)
	Update(ctx context.Context, id book.Identity, p book.Patch) (book.Book, error)
	Delete(ctx context.Context, id book.Identity) error
}

var (
	// ErrStale is returned by Refresh when a newer refresh started while
	// this one was in flight. The session state is left untouched.
	ErrStale = errors.New("stale response discarded")
	// ErrNotEditing is returned by SaveEdit without a prior BeginEdit.
	ErrNotEditing = errors.New("no book is being edited")
)

// Edit is the in-progress inline edit of one book.
type Edit struct {
	Target book.Identity
	Title  string
	Author string

	record book.Book
}

// refersTo reports whether id addresses the book being edited, whichever
// way either side names it.
func (e *Edit) refersTo(id book.Identity) bool {
	return e.Target == id || id.Matches(e.record)
}

// View is a snapshot of everything a presentation layer renders.
type View struct {
	Query   book.Query
	Items   []book.Book
	Meta    pagination.Meta
	Nav     pagination.Nav
	Loading bool
	Error   string
	Editing *Edit
}

// Session holds the state of one book list screen. It is safe for
// concurrent use; only the latest Refresh may update the shown page.
type Session struct {
	mu      sync.Mutex
	src     Source
	query   book.Query
	page    book.Page
	seq     uint64
	loading bool
	errMsg  string
	edit    *Edit
}

// NewSession starts a session on q, normalized.
func NewSession(src Source, q book.Query) *Session {
	q = q.Normalize()
	return &Session{
		src:   src,
		query: q,
		page:  book.Page{Items: []book.Book{}, Meta: pagination.NewMeta(0, 1, q.PageSize)},
	}
}

func (s *Session) Query() book.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetFilter changes the status filter and goes back to page 1.
func (s *Session) SetFilter(status book.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !status.Valid() {
		status = book.StatusAll
	}
	s.query.Status = status
	s.query.Page = 1
}

// SetSearch changes the search text and goes back to page 1.
func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Search = text
	s.query.Page = 1
}

// SetSort changes the sort mode and goes back to page 1.
func (s *Session) SetSort(mode book.SortMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Sort = mode
	s.query.Page = 1
}

// SetPage moves to page n. Pages below 1 become 1; pages past the end are
// corrected by the next Refresh.
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Page = max(n, 1)
}

// NextPage and PrevPage step within the last known page count.
func (s *Session) NextPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page.Meta.HasNext() {
		s.query.Page = s.page.Meta.Page + 1
	}
}

func (s *Session) PrevPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page.Meta.HasPrev() {
		s.query.Page = s.page.Meta.Page - 1
	}
}

// Refresh loads the page for the current query. If another Refresh starts
// before this one returns, this result is dropped and ErrStale returned.
// On success the current page follows the corrected page of the result.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	q := s.query
	s.loading = true
	s.mu.Unlock()

	page, err := s.src.List(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrStale
	}
	s.loading = false
	if err != nil {
		s.errMsg = describe("Failed to load books", err)
		return err
	}
	s.errMsg = ""
	s.page = page
	if page.Meta.Page >= 1 && page.Meta.Page != s.query.Page {
		s.query.Page = page.Meta.Page
	}
	return nil
}

// Add creates a book, returns to page 1 and reloads.
func (s *Session) Add(ctx context.Context, d book.Draft) (book.Book, error) {
	created, err := s.src.Create(ctx, d)
	if err != nil {
		s.fail("Failed to add book", err)
		return book.Book{}, err
	}
	s.SetPage(1)
	return created, s.reload(ctx)
}

// Rate sets the rating of a book and reloads.
func (s *Session) Rate(ctx context.Context, id book.Identity, rating int) error {
	return s.update(ctx, id, book.RatingPatch(rating), "Failed to rate book")
}

// SetStatus changes the status of a book and reloads.
func (s *Session) SetStatus(ctx context.Context, id book.Identity, status book.Status) error {
	return s.update(ctx, id, book.StatusPatch(status), "Failed to update status")
}

// BeginEdit opens the edit buffer on b, replacing any edit in progress.
func (s *Session) BeginEdit(b book.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = &Edit{Target: book.IdentityOf(b), Title: b.Title, Author: b.Author, record: b}
}

// UpdateEdit changes the buffered title and author.
func (s *Session) UpdateEdit(title, author string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return ErrNotEditing
	}
	s.edit.Title = title
	s.edit.Author = author
	return nil
}

func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = nil
}

// SaveEdit writes the edit buffer. The buffer is kept when the update
// fails so the user can retry.
func (s *Session) SaveEdit(ctx context.Context) error {
	s.mu.Lock()
	edit := s.edit
	s.mu.Unlock()
	if edit == nil {
		return ErrNotEditing
	}

	title, author := edit.Title, edit.Author
	p := book.Patch{Title: &title, Author: &author}
	if _, err := s.src.Update(ctx, edit.Target, p); err != nil {
		s.fail("Failed to save changes", err)
		return err
	}

	s.mu.Lock()
	if s.edit == edit {
		s.edit = nil
	}
	s.mu.Unlock()
	return s.reload(ctx)
}

// Delete removes a book, closes its edit buffer if open and reloads.
func (s *Session) Delete(ctx context.Context, id book.Identity) error {
	if err := s.src.Delete(ctx, id); err != nil {
		s.fail("Failed to delete book", err)
		return err
	}

	s.mu.Lock()
	if s.edit != nil && s.edit.refersTo(id) {
		s.edit = nil
	}
	s.mu.Unlock()
	return s.reload(ctx)
}

// View returns a copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Query:   s.query,
		Items:   append([]book.Book{}, s.page.Items...),
		Meta:    s.page.Meta,
		Nav:     pagination.NavFor(s.page.Meta),
		Loading: s.loading,
		Error:   s.errMsg,
	}
	if s.edit != nil {
		e := *s.edit
		v.Editing = &e
	}
	return v
}

// Prefs returns the persistable part of the state with the given theme.
func (s *Session) Prefs(theme Theme) Prefs {
	q := s.Query()
	return Prefs{Filter: q.Status, Sort: q.Sort, Search: q.Search, Page: q.Page, Theme: theme}
}

func (s *Session) update(ctx context.Context, id book.Identity, p book.Patch, action string) error {
	if _, err := s.src.Update(ctx, id, p); err != nil {
		s.fail(action, err)
		return err
	}
	return s.reload(ctx)
}

// reload refreshes after a mutation. Losing the race to a newer refresh is
// fine: that refresh already sees the mutation.
func (s *Session) reload(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		return err
	}
	return nil
}

func (s *Session) fail(action string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = describe(action, err)
}

func describe(action string, err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return action
	}
	return fmt.Sprintf("%s: %s", action, msg)
}
