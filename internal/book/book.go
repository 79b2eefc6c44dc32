package book

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no book matches an identity.
	ErrNotFound = errors.New("book not found")
	// ErrEmptyPatch is returned when an update carries no fields.
	ErrEmptyPatch = errors.New("no updates provided")

	ErrMissingTitle  = errors.New("title is required")
	ErrMissingAuthor = errors.New("author is required")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidRating = errors.New("invalid rating")
)

// Status is the reading state of a book.
type Status string

const (
	StatusReading    Status = "Reading"
	StatusRead       Status = "Read"
	StatusWantToRead Status = "Want to Read"
	StatusDNF        Status = "DNF"

	// StatusAll is the filter value that disables status filtering.
	// It is never a valid status of a stored book.
	StatusAll Status = "All"
)

// Statuses lists the valid statuses in display order.
var Statuses = []Status{StatusReading, StatusRead, StatusWantToRead, StatusDNF}

// Valid reports whether s is one of the four book statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusReading, StatusRead, StatusWantToRead, StatusDNF:
		return true
	}
	return false
}

const (
	MinRating = 0
	MaxRating = 5
)

// Book is a tracked reading item.
type Book struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Status    Status    `json:"status"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// NormalizeRating enforces that a book nobody has read yet carries no
// rating. Every create and update path goes through it.
func NormalizeRating(status Status, rating int) int {
	if status == StatusWantToRead {
		return 0
	}
	return rating
}

// Draft is the input for creating a book.
type Draft struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Status Status `json:"status"`
	Rating int    `json:"rating"`
}

// Normalize trims text fields, defaults the status to Reading and applies
// NormalizeRating.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	if d.Status == "" {
		d.Status = StatusReading
	}
	d.Rating = NormalizeRating(d.Status, d.Rating)
	return d
}

// Validate checks a normalized draft.
func (d Draft) Validate() error {
	switch {
	case d.Title == "":
		return ErrMissingTitle
	case d.Author == "":
		return ErrMissingAuthor
	case !d.Status.Valid():
		return ErrInvalidStatus
	case d.Rating < MinRating || d.Rating > MaxRating:
		return ErrInvalidRating
	}
	return nil
}

// Book returns the draft as an unsaved book.
func (d Draft) Book() Book {
	return Book{Title: d.Title, Author: d.Author, Status: d.Status, Rating: d.Rating}
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	Status *Status `json:"status,omitempty"`
	Rating *int    `json:"rating,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Status == nil && p.Rating == nil
}

// Validate checks the fields that are present.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrMissingTitle
	}
	if p.Author != nil && strings.TrimSpace(*p.Author) == "" {
		return ErrMissingAuthor
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.Rating != nil && (*p.Rating < MinRating || *p.Rating > MaxRating) {
		return ErrInvalidRating
	}
	return nil
}

// Apply merges the patch into b. The rating rule is evaluated against the
// merged result, so rating a "Want to Read" book keeps it at zero.
func (p Patch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil {
		b.Author = strings.TrimSpace(*p.Author)
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	b.Rating = NormalizeRating(b.Status, b.Rating)
	return b
}

// RatingPatch returns a patch that only sets the rating.
func RatingPatch(rating int) Patch { return Patch{Rating: &rating} }

// StatusPatch returns a patch that only sets the status.
func StatusPatch(status Status) Patch { return Patch{Status: &status} }
