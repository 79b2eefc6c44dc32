package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"booktracker/internal/book"
	"booktracker/internal/cache"
	"booktracker/internal/config"
	"booktracker/internal/httpx"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool := mustOpenDB(cfg.Database.URL)
	defer dbPool.Close()

	checks := []readinessCheck{{name: "db", check: dbPool.Ping}}

	var repo book.Repository = book.NewPostgresRepo(dbPool, cfg.Database.Timeout)
	if cfg.Redis.Enabled() {
		client := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()
		cached := cache.NewRepository(repo, client, cfg.Redis.TTL)
		repo = cached
		checks = append(checks, readinessCheck{name: "cache", check: cached.Ping})
		log.Printf("list cache enabled: addr=%s ttl=%s", cfg.Redis.Addr, cfg.Redis.TTL)
	}

	handler := newHandler(ctx, cfg, repo, checks)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on %s", cfg.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server stopped")
}

type readinessCheck struct {
	name  string
	check func(context.Context) error
}

// newHandler wires the routes and the middleware chain. ctx bounds
// background work started by middlewares.
func newHandler(ctx context.Context, cfg *config.Config, repo book.Repository, checks []readinessCheck) http.Handler {
	metrics := httpx.NewMetrics()
	router := http.NewServeMux()

	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		for _, c := range checks {
			if err := c.check(checkCtx); err != nil {
				log.Printf("readiness check failed: check=%s error=%v", c.name, err)
				httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", c.name+" not ready", nil)
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	router.Handle("GET /metrics", metrics.Handler())

	book.NewHTTPHandler(book.NewService(repo)).Register(router)

	rateLimiter := httpx.NewRateLimitMiddleware(ctx, cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		metrics.Middleware,
		httpx.CORSMiddleware(cfg.HTTP.CORSOrigins),
		httpx.SecurityHeadersMiddleware(cfg.HTTP.EnableHSTS),
		httpx.RequestSizeLimitMiddleware(cfg.HTTP.MaxBodyBytes),
		rateLimiter.Middleware,
	)
}

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
