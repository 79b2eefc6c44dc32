package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage.
//
// List applies the status filter, search and sort of q exactly like Select
// and returns the requested page (LIMIT/OFFSET semantics, possibly empty)
// together with the total number of matching books. Create and Update must
// store normalized records.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, int, error)
	Create(ctx context.Context, d Draft) (Book, error)
	Update(ctx context.Context, id Identity, p Patch) (Book, error)
	Delete(ctx context.Context, id Identity) (bool, error)
}
