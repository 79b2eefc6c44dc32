package book

import (
	"context"
	"fmt"

	"booktracker/internal/pagination"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the page of books selected by q. When q asks for a page past
// the end, the last page is returned instead and Meta.Page says so.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	q = q.Normalize()

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("list books: %w", err)
	}
	meta := pagination.NewMeta(total, q.Page, q.PageSize)

	if meta.Page != q.Page {
		q.Page = meta.Page
		items, total, err = s.repo.List(ctx, q)
		if err != nil {
			return Page{}, fmt.Errorf("list books: %w", err)
		}
		meta = pagination.NewMeta(total, q.Page, q.PageSize)
	}

	if items == nil {
		items = []Book{}
	}
	return Page{Items: items, Meta: meta}, nil
}

// Create validates and stores a new book.
func (s *Service) Create(ctx context.Context, d Draft) (Book, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return Book{}, err
	}
	return s.repo.Create(ctx, d)
}

// Update applies p to the book identified by id.
func (s *Service) Update(ctx context.Context, id Identity, p Patch) (Book, error) {
	if err := p.Validate(); err != nil {
		return Book{}, err
	}
	return s.repo.Update(ctx, id, p)
}

// Delete removes the book identified by id.
func (s *Service) Delete(ctx context.Context, id Identity) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
