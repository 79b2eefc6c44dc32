package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"booktracker/internal/book"

	"github.com/redis/go-redis/v9"
)

// generationKey is bumped on every mutation. List pages are cached under
// the generation current when they were read, so a bump orphans every
// older page at once and TTL expiry cleans them up.
const generationKey = "books:list:gen"

type listEntry struct {
	Items []book.Book `json:"items"`
	Total int         `json:"total"`
}

// Repository is a cache-aside decorator over a book.Repository. Redis
// failures never fail a request: reads fall through to the inner store and
// write-side invalidation errors are logged.
type Repository struct {
	inner  book.Repository
	client redis.UniversalClient
	ttl    time.Duration
}

var _ book.Repository = (*Repository)(nil)

func NewRepository(inner book.Repository, client redis.UniversalClient, ttl time.Duration) *Repository {
	return &Repository{inner: inner, client: client, ttl: ttl}
}

// NewClient connects to a single Redis node.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// Ping checks the Redis connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Repository) List(ctx context.Context, q book.Query) ([]book.Book, int, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		log.Printf("cache: read generation: %v", err)
		return r.inner.List(ctx, q)
	}
	key := listKey(gen, q)

	if items, total, ok := r.get(ctx, key); ok {
		return items, total, nil
	}

	items, total, err := r.inner.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	r.set(ctx, key, listEntry{Items: items, Total: total})
	return items, total, nil
}

func (r *Repository) Create(ctx context.Context, d book.Draft) (book.Book, error) {
	b, err := r.inner.Create(ctx, d)
	if err != nil {
		return book.Book{}, err
	}
	r.invalidate(ctx)
	return b, nil
}

func (r *Repository) Update(ctx context.Context, id book.Identity, p book.Patch) (book.Book, error) {
	b, err := r.inner.Update(ctx, id, p)
	if err != nil {
		return book.Book{}, err
	}
	r.invalidate(ctx)
	return b, nil
}

func (r *Repository) Delete(ctx context.Context, id book.Identity) (bool, error) {
	ok, err := r.inner.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		r.invalidate(ctx)
	}
	return ok, nil
}

func (r *Repository) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Repository) get(ctx context.Context, key string) ([]book.Book, int, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get %s: %v", key, err)
		}
		return nil, 0, false
	}

	var entry listEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		log.Printf("cache: decode %s: %v", key, err)
		return nil, 0, false
	}
	if entry.Items == nil {
		entry.Items = []book.Book{}
	}
	return entry.Items, entry.Total, true
}

func (r *Repository) set(ctx context.Context, key string, entry listEntry) {
	val, err := json.Marshal(entry)
	if err != nil {
		log.Printf("cache: encode %s: %v", key, err)
		return
	}
	if err := r.client.Set(ctx, key, val, r.ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}

// invalidate runs after the inner store committed, with a context that
// survives cancellation of the request.
func (r *Repository) invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := r.client.Incr(ctx, generationKey).Err(); err != nil {
		log.Printf("cache: bump generation: %v", err)
	}
}

// listKey names the cached page of q under generation gen.
func listKey(gen int64, q book.Query) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%d",
		q.Status, q.Search, q.Sort, q.Page, q.PageSize)))
	return fmt.Sprintf("books:list:%d:%s", gen, hex.EncodeToString(sum[:12]))
}
