package book

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"booktracker/internal/httpx"
	"booktracker/internal/pagination"
	"booktracker/internal/testutil"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listResponse struct {
	Success bool            `json:"success"`
	Data    []Book          `json:"data"`
	Meta    pagination.Meta `json:"meta"`
}

func newTestMux(repo Repository) *http.ServeMux {
	mux := http.NewServeMux()
	NewHTTPHandler(NewService(repo)).Register(mux)
	return mux
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Query
	}{
		{"defaults", "", Query{Status: StatusAll, Sort: SortTitleAsc, Page: 1, PageSize: 5}},
		{"all fields", "status=Read&search=+dune+&sort=rating-desc&page=2&pageSize=10",
			Query{Status: StatusRead, Search: "dune", Sort: SortRatingDesc, Page: 2, PageSize: 10}},
		{"want to read", "status=Want+to+Read", Query{Status: StatusWantToRead, Sort: SortTitleAsc, Page: 1, PageSize: 5}},
		{"unknown status disables filter", "status=Bogus", Query{Status: StatusAll, Sort: SortTitleAsc, Page: 1, PageSize: 5}},
		{"unknown sort falls back", "sort=random", Query{Status: StatusAll, Sort: SortTitleAsc, Page: 1, PageSize: 5}},
		{"non numeric page", "page=abc&pageSize=xyz", Query{Status: StatusAll, Sort: SortTitleAsc, Page: 1, PageSize: 5}},
		{"fractional values truncate", "page=2.7&pageSize=3.9", Query{Status: StatusAll, Sort: SortTitleAsc, Page: 2, PageSize: 3}},
		{"clamped low", "page=-4&pageSize=0", Query{Status: StatusAll, Sort: SortTitleAsc, Page: 1, PageSize: 1}},
		{"clamped high", "page=99999&pageSize=1000", Query{Status: StatusAll, Sort: SortTitleAsc, Page: MaxPage, PageSize: MaxPageSize}},
		{"infinite page", "page=Inf", Query{Status: StatusAll, Sort: SortTitleAsc, Page: 1, PageSize: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParseListQuery(values))
		})
	}
}

func TestEncodeListQuery(t *testing.T) {
	q := Query{Status: StatusWantToRead, Search: "emma", Sort: SortAuthorDesc, Page: 3, PageSize: 7}
	assert.Equal(t, q, ParseListQuery(EncodeListQuery(q)))

	all := EncodeListQuery(Query{Status: StatusAll, Sort: SortTitleAsc, Page: 1, PageSize: 5})
	assert.Empty(t, all.Get("status"))
	assert.Empty(t, all.Get("search"))
}

func TestHTTPHandler_List(t *testing.T) {
	mux := newTestMux(NewMemoryRepo(numbered(12)...))

	t.Run("first page", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/api/books", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp listResponse
		testutil.DecodeJSON(t, w, &resp)
		assert.True(t, resp.Success)
		assert.Len(t, resp.Data, 5)
		assert.Equal(t, pagination.Meta{Page: 1, PageSize: 5, Total: 12, TotalPages: 3}, resp.Meta)
	})

	t.Run("page past the end returns the last page", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/api/books?page=5", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp listResponse
		testutil.DecodeJSON(t, w, &resp)
		assert.Equal(t, 3, resp.Meta.Page)
		assert.Equal(t, []string{"Book 11", "Book 12"}, titles(resp.Data))
	})

	t.Run("no match yields an empty array", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/api/books?search=nothing", nil))

		rec := testutil.RecordHTTPResponse(w)
		testutil.AssertResponseCode(t, rec.Code, http.StatusOK)
		assert.Equal(t, []interface{}{}, rec.Body["data"])
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		newTestMux(repo).ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/api/books", nil))

		rec := testutil.RecordHTTPResponse(w)
		testutil.AssertResponseCode(t, rec.Code, http.StatusInternalServerError)
		testutil.AssertResponseBody(t, rec.Body, "code", "INTERNAL_ERROR")
		testutil.AssertResponseBody(t, rec.Body, "success", false)
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("created with defaults", func(t *testing.T) {
		repo := NewMemoryRepo()
		w := httptest.NewRecorder()
		newTestMux(repo).ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/api/books",
			map[string]any{"title": " Dune ", "author": "Frank Herbert"}))

		require.Equal(t, http.StatusCreated, w.Code)
		var created Book
		testutil.DecodeJSON(t, w, &created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Dune", created.Title)
		assert.Equal(t, StatusReading, created.Status)
		assert.Equal(t, 0, created.Rating)
		assert.Len(t, repo.Snapshot(), 1)
	})

	t.Run("want to read drops the rating", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestMux(NewMemoryRepo()).ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/api/books",
			map[string]any{"title": "Emma", "author": "Jane Austen", "status": "Want to Read", "rating": 4}))

		require.Equal(t, http.StatusCreated, w.Code)
		var created Book
		testutil.DecodeJSON(t, w, &created)
		assert.Equal(t, 0, created.Rating)
	})

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing title", map[string]any{"author": "A"}, "title"},
		{"blank author", map[string]any{"title": "T", "author": "   "}, "author"},
		{"unknown status", map[string]any{"title": "T", "author": "A", "status": "Skimmed"}, "status"},
		{"rating too high", map[string]any{"title": "T", "author": "A", "rating": 6}, "rating"},
		{"negative rating", map[string]any{"title": "T", "author": "A", "rating": -1}, "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newTestMux(NewMemoryRepo()).ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/api/books", tt.body))

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp httpx.ErrorResponse
			testutil.DecodeJSON(t, w, &resp)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.field, resp.Details[0].Field)
			assert.NotEmpty(t, resp.Message)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestMux(NewMemoryRepo()).ServeHTTP(w, testutil.NewRawRequest(http.MethodPost, "/api/books", "{"))

		rec := testutil.RecordHTTPResponse(w)
		testutil.AssertResponseCode(t, rec.Code, http.StatusBadRequest)
		testutil.AssertResponseBody(t, rec.Body, "code", "BAD_REQUEST")
	})
}

func TestHTTPHandler_Update(t *testing.T) {
	seed := Book{ID: "8f14e45f-ceea-467f-a0e6-59c2b54c0b1a", Title: "Dune", Author: "Frank Herbert", Status: StatusReading, Rating: 3}

	t.Run("partial update", func(t *testing.T) {
		mux := newTestMux(NewMemoryRepo(seed))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodPatch, "/api/books/"+seed.ID, map[string]any{"rating": 5}))

		require.Equal(t, http.StatusOK, w.Code)
		var updated Book
		testutil.DecodeJSON(t, w, &updated)
		assert.Equal(t, 5, updated.Rating)
		assert.Equal(t, "Dune", updated.Title)
	})

	t.Run("status change to want to read clears rating", func(t *testing.T) {
		mux := newTestMux(NewMemoryRepo(seed))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodPatch, "/api/books/"+seed.ID, map[string]any{"status": "Want to Read"}))

		require.Equal(t, http.StatusOK, w.Code)
		var updated Book
		testutil.DecodeJSON(t, w, &updated)
		assert.Equal(t, StatusWantToRead, updated.Status)
		assert.Equal(t, 0, updated.Rating)
	})

	t.Run("empty body", func(t *testing.T) {
		mux := newTestMux(NewMemoryRepo(seed))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodPatch, "/api/books/"+seed.ID, map[string]any{}))

		rec := testutil.RecordHTTPResponse(w)
		testutil.AssertResponseCode(t, rec.Code, http.StatusBadRequest)
		testutil.AssertResponseBody(t, rec.Body, "message", "no updates provided")
	})

	t.Run("invalid rating", func(t *testing.T) {
		mux := newTestMux(NewMemoryRepo(seed))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodPatch, "/api/books/"+seed.ID, map[string]any{"rating": 7}))

		rec := testutil.RecordHTTPResponse(w)
		testutil.AssertResponseCode(t, rec.Code, http.StatusBadRequest)
		testutil.AssertResponseBody(t, rec.Body, "code", "VALIDATION_ERROR")
	})

	t.Run("blank title", func(t *testing.T) {
		mux := newTestMux(NewMemoryRepo(seed))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodPatch, "/api/books/"+seed.ID, map[string]any{"title": " "}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		mux := newTestMux(NewMemoryRepo(seed))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodPatch, "/api/books/nope", map[string]any{"rating": 1}))

		rec := testutil.RecordHTTPResponse(w)
		testutil.AssertResponseCode(t, rec.Code, http.StatusNotFound)
		testutil.AssertResponseBody(t, rec.Body, "code", "NOT_FOUND")
	})
}

func TestHTTPHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	mux := newTestMux(repo)

	t.Run("deleted", func(t *testing.T) {
		repo.EXPECT().Delete(gomock.Any(), ByID("1")).Return(true, nil)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodDelete, "/api/books/1", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		repo.EXPECT().Delete(gomock.Any(), ByID("2")).Return(false, nil)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodDelete, "/api/books/2", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		repo.EXPECT().Delete(gomock.Any(), ByID("3")).Return(false, context.Canceled)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.NewRequest(http.MethodDelete, "/api/books/3", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
