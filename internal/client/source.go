package client

import (
	"context"
	"fmt"

	"booktracker/internal/book"
)

// Source adapts a Client to identity-based callers such as tracker.Session.
// Remote books are always addressed by id.
type Source struct {
	*Client
}

func (s Source) Update(ctx context.Context, id book.Identity, p book.Patch) (book.Book, error) {
	v, err := remoteID(id)
	if err != nil {
		return book.Book{}, err
	}
	return s.Client.Update(ctx, v, p)
}

func (s Source) Delete(ctx context.Context, id book.Identity) error {
	v, err := remoteID(id)
	if err != nil {
		return err
	}
	return s.Client.Delete(ctx, v)
}

func remoteID(id book.Identity) (string, error) {
	v, ok := id.ID()
	if !ok || v == "" {
		return "", fmt.Errorf("remote books are addressed by id, got %s: %w", id, book.ErrNotFound)
	}
	return v, nil
}
