package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id::text, title, author, status, rating, created_at, updated_at`

// orderClauses mirrors Sort. book_loose compares base letters only, as the
// in-memory collator does, so "Émile" and "emile" tie. The trailing
// created_at, id keeps ties in insertion order, which is what a stable
// in-memory sort does.
var orderClauses = map[SortMode]string{
	SortTitleAsc:   "title COLLATE book_loose ASC",
	SortTitleDesc:  "title COLLATE book_loose DESC",
	SortAuthorAsc:  "author COLLATE book_loose ASC",
	SortAuthorDesc: "author COLLATE book_loose DESC",
	SortRatingAsc:  "rating ASC, title COLLATE book_loose ASC",
	SortRatingDesc: "rating DESC, title COLLATE book_loose ASC",
}

const insertionOrder = "created_at ASC, id ASC"

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// buildListSQL returns the count and page statements for q with their
// shared arguments. The page statement takes two more arguments: limit and
// offset.
func buildListSQL(q Query) (countSQL, dataSQL string, args []any) {
	clauses := []string{"1=1"}
	argn := 1

	if q.FiltersStatus() {
		clauses = append(clauses, fmt.Sprintf("status = $%d", argn))
		args = append(args, string(q.Status))
		argn++
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		clauses = append(clauses, fmt.Sprintf(
			`(lower(title COLLATE book_fold) LIKE $%d ESCAPE '\' OR lower(author COLLATE book_fold) LIKE $%d ESCAPE '\')`,
			argn, argn))
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
		argn++
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	order := insertionOrder
	if clause, ok := orderClauses[q.Sort]; ok {
		order = clause + ", " + insertionOrder
	}

	countSQL = "SELECT COUNT(*) FROM books " + where
	dataSQL = fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		bookColumns, where, order, argn, argn+1)
	return countSQL, dataSQL, args
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	countSQL, dataSQL, args := buildListSQL(q)

	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (max(q.Page, 1) - 1) * q.PageSize
	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, q.PageSize, offset)
	timeoutCtx2, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(timeoutCtx2, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, d Draft) (Book, error) {
	d = d.Normalize()
	const sql = `
		INSERT INTO books (title, author, status, rating)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, sql, d.Title, d.Author, string(d.Status), d.Rating))
}

// Update locks the row, merges the patch in Go so the rating rule lives in
// one place, and writes the merged record back.
func (r *PostgresRepo) Update(ctx context.Context, id Identity, p Patch) (Book, error) {
	if p.IsEmpty() {
		return Book{}, ErrEmptyPatch
	}
	where, args, err := identityWhere(id)
	if err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var updated Book
	err = pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		current, err := scanBook(tx.QueryRow(timeoutCtx,
			"SELECT "+bookColumns+" FROM books WHERE "+where+" FOR UPDATE", args...))
		if err != nil {
			return err
		}
		merged := p.Apply(current)

		const sql = `
			UPDATE books
			SET title = $1, author = $2, status = $3, rating = $4, updated_at = NOW()
			WHERE id = $5
			RETURNING ` + bookColumns
		updated, err = scanBook(tx.QueryRow(timeoutCtx, sql,
			merged.Title, merged.Author, string(merged.Status), merged.Rating, current.ID))
		return err
	})
	if err != nil {
		return Book{}, err
	}
	return updated, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id Identity) (bool, error) {
	where, args, err := identityWhere(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var deleted string
	err = r.db.QueryRow(timeoutCtx,
		"DELETE FROM books WHERE id = (SELECT id FROM books WHERE "+where+") RETURNING id::text", args...).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// identityWhere selects at most one row; a title/author pair resolves to
// the oldest match.
func identityWhere(id Identity) (string, []any, error) {
	if v, ok := id.ID(); ok {
		parsed, err := uuid.Parse(v)
		if err != nil {
			return "", nil, ErrNotFound
		}
		return "id = $1", []any{parsed.String()}, nil
	}
	if title, author, ok := id.TitleAuthor(); ok {
		return "id = (SELECT id FROM books WHERE title = $1 AND author = $2 ORDER BY " + insertionOrder + " LIMIT 1)",
			[]any{title, author}, nil
	}
	return "", nil, ErrNotFound
}

func scanBook(row pgx.Row) (Book, error) {
	var (
		b      Book
		status string
	)
	err := row.Scan(&b.ID, &b.Title, &b.Author, &status, &b.Rating, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	b.Status = Status(status)
	return b, nil
}
