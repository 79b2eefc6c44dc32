package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"booktracker/internal/book"
	"booktracker/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	count := flag.Int("count", 0, "number of generated books to add after the defaults")
	skipDefaults := flag.Bool("skip-defaults", false, "do not insert the default books")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := book.NewPostgresRepo(pool, cfg.Database.Timeout)

	var drafts []book.Draft
	if !*skipDefaults {
		for _, b := range book.DefaultBooks {
			drafts = append(drafts, book.Draft{Title: b.Title, Author: b.Author, Status: b.Status, Rating: b.Rating})
		}
	}
	drafts = append(drafts, generateDrafts(rand.New(rand.NewSource(time.Now().UnixNano())), *count)...)

	start := time.Now()
	for i, d := range drafts {
		if _, err := repo.Create(ctx, d); err != nil {
			log.Fatalf("insert book %d (%q): %v", i+1, d.Title, err)
		}
	}
	log.Printf("seeded %d books in %s", len(drafts), time.Since(start).Round(time.Millisecond))
}

var (
	adjectives = []string{"Silent", "Crimson", "Hidden", "Last", "Golden", "Broken", "Distant", "Quiet", "Wild", "Forgotten"}
	nouns      = []string{"River", "Garden", "Empire", "Letter", "Harbor", "Mountain", "Library", "Winter", "Signal", "Orchard"}
	firstNames = []string{"Ada", "Jorge", "Mira", "Tomas", "Yuki", "Leila", "Olu", "Greta", "Ravi", "Ines"}
	lastNames  = []string{"Marsh", "Okafor", "Lindqvist", "Moreau", "Tanaka", "Haddad", "Silva", "Novak", "Brennan", "Kaur"}
)

// generateDrafts returns n plausible books. Ratings are drawn for every
// status; the store clears them for "Want to Read".
func generateDrafts(rng *rand.Rand, n int) []book.Draft {
	out := make([]book.Draft, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, book.Draft{
			Title:  fmt.Sprintf("The %s %s", adjectives[rng.Intn(len(adjectives))], nouns[rng.Intn(len(nouns))]),
			Author: fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))]),
			Status: book.Statuses[rng.Intn(len(book.Statuses))],
			Rating: rng.Intn(book.MaxRating + 1),
		})
	}
	return out
}
