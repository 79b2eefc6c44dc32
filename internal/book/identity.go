package book

import "fmt"

type identityKind int

const (
	identityByID identityKind = iota + 1
	identityByTitleAuthor
)

// Identity selects a single book, either by its store-assigned id or, for
// records that never received one, by title and author.
//
// The zero Identity matches nothing.
type Identity struct {
	kind   identityKind
	id     string
	title  string
	author string
}

// ByID identifies a book by id.
func ByID(id string) Identity {
	return Identity{kind: identityByID, id: id}
}

// ByTitleAuthor identifies a book by its exact title and author.
func ByTitleAuthor(title, author string) Identity {
	return Identity{kind: identityByTitleAuthor, title: title, author: author}
}

// IdentityOf returns the identity used to address b: its id when it has
// one, its title and author otherwise.
func IdentityOf(b Book) Identity {
	if b.ID != "" {
		return ByID(b.ID)
	}
	return ByTitleAuthor(b.Title, b.Author)
}

// ID returns the id and whether the identity is id-based.
func (i Identity) ID() (string, bool) {
	return i.id, i.kind == identityByID
}

// TitleAuthor returns the composite key and whether the identity uses it.
func (i Identity) TitleAuthor() (title, author string, ok bool) {
	return i.title, i.author, i.kind == identityByTitleAuthor
}

// IsZero reports whether the identity was never set.
func (i Identity) IsZero() bool { return i.kind == 0 }

// Matches reports whether b is the book the identity points at.
func (i Identity) Matches(b Book) bool {
	switch i.kind {
	case identityByID:
		return i.id != "" && b.ID == i.id
	case identityByTitleAuthor:
		return b.Title == i.title && b.Author == i.author
	}
	return false
}

func (i Identity) String() string {
	switch i.kind {
	case identityByID:
		return "id:" + i.id
	case identityByTitleAuthor:
		return fmt.Sprintf("title:%q author:%q", i.title, i.author)
	}
	return "none"
}
