package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"booktracker/internal/book"
	"booktracker/internal/httpx"
	"booktracker/internal/pagination"

	"golang.org/x/time/rate"
)

// Client talks to the /api/books endpoints of a booktracker server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default 15s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests at rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetries retries list requests that failed in transport or with a
// 429 or 5xx status, doubling the wait from backoff each time. Mutations
// are never retried.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = backoff
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, book.ErrNotFound) see 404 answers.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return book.ErrNotFound
	}
	return nil
}

type listResponse struct {
	Data []book.Book     `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// List fetches one page. The status parameter is omitted for "All" and the
// search parameter when blank.
func (c *Client) List(ctx context.Context, q book.Query) (book.Page, error) {
	u := c.baseURL + "/api/books"
	if values := book.EncodeListQuery(q); len(values) > 0 {
		u += "?" + values.Encode()
	}

	var res listResponse
	if err := c.getWithRetry(ctx, u, &res); err != nil {
		return book.Page{}, err
	}
	if res.Data == nil {
		res.Data = []book.Book{}
	}
	return book.Page{Items: res.Data, Meta: res.Meta}, nil
}

func (c *Client) Create(ctx context.Context, d book.Draft) (book.Book, error) {
	var created book.Book
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/books", d, &created)
	return created, err
}

func (c *Client) Update(ctx context.Context, id string, p book.Patch) (book.Book, error) {
	var updated book.Book
	err := c.do(ctx, http.MethodPatch, c.bookURL(id), p, &updated)
	return updated, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.bookURL(id), nil, nil)
}

func (c *Client) bookURL(id string) string {
	return c.baseURL + "/api/books/" + url.PathEscape(id)
}

func (c *Client) getWithRetry(ctx context.Context, u string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.do(ctx, http.MethodGet, u, nil, target)
		if err == nil || !retryable(err) {
			return err
		}
		lastErr = err
	}
	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func retryable(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		// transport failure; context errors are surfaced by the backoff select
		return true
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}

func (c *Client) do(ctx context.Context, method, u string, body, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, u, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body httpx.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	return apiErr
}
