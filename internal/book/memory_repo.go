package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"booktracker/internal/pagination"

	"github.com/google/uuid"
)

// DefaultBooks seeds a fresh local library.
var DefaultBooks = []Book{
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", Status: StatusReading},
	{Title: "Harry Potter", Author: "J. Rowling", Status: StatusRead},
}

// MemoryRepo keeps books in insertion order in memory. When opened on a
// file it rewrites that file after every mutation.
type MemoryRepo struct {
	mu    sync.RWMutex
	books []Book
	path  string
	now   func() time.Time
}

// NewMemoryRepo returns a repository holding copies of books.
func NewMemoryRepo(books ...Book) *MemoryRepo {
	r := &MemoryRepo{now: time.Now}
	for _, b := range books {
		b.Rating = NormalizeRating(b.Status, b.Rating)
		r.books = append(r.books, b)
	}
	return r
}

// OpenMemoryRepo loads a repository persisted at path. A missing file
// starts from DefaultBooks.
func OpenMemoryRepo(path string) (*MemoryRepo, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		r := NewMemoryRepo(DefaultBooks...)
		for i := range r.books {
			r.books[i].ID = uuid.NewString()
		}
		r.path = path
		return r, r.save()
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var books []Book
	if len(data) > 0 {
		if err := json.Unmarshal(data, &books); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	r := NewMemoryRepo(books...)
	r.path = path
	return r, nil
}

// Snapshot returns a copy of every stored book in insertion order.
func (r *MemoryRepo) Snapshot() []Book {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Book(nil), r.books...)
}

func (r *MemoryRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	selected := Select(r.books, q)
	r.mu.RUnlock()

	// Requested page, not the clamped one: that is the store contract.
	meta := pagination.Meta{Page: max(q.Page, 1), PageSize: q.PageSize, Total: len(selected)}
	start, end := meta.Bounds()
	return selected[start:end], len(selected), nil
}

func (r *MemoryRepo) Create(ctx context.Context, d Draft) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}
	d = d.Normalize()
	b := d.Book()
	b.ID = uuid.NewString()
	b.CreatedAt = r.now().UTC()
	b.UpdatedAt = b.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = append(r.books, b)
	return b, r.save()
}

func (r *MemoryRepo) Update(ctx context.Context, id Identity, p Patch) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}
	if p.IsEmpty() {
		return Book{}, ErrEmptyPatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return Book{}, ErrNotFound
	}
	b := p.Apply(r.books[i])
	if !b.CreatedAt.IsZero() {
		b.UpdatedAt = r.now().UTC()
	}
	r.books[i] = b
	return b, r.save()
}

func (r *MemoryRepo) Delete(ctx context.Context, id Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return false, nil
	}
	r.books = append(r.books[:i:i], r.books[i+1:]...)
	return true, r.save()
}

func (r *MemoryRepo) indexOf(id Identity) int {
	for i, b := range r.books {
		if id.Matches(b) {
			return i
		}
	}
	return -1
}

// save writes the books to r.path through a temporary file. Callers hold
// the write lock.
func (r *MemoryRepo) save() error {
	if r.path == "" {
		return nil
	}
	books := r.books
	if books == nil {
		books = []Book{}
	}
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".books-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
