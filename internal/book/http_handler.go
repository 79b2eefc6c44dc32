package book

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"booktracker/internal/httpx"

	"github.com/go-playground/validator/v10"
)

func init() {
	httpx.RegisterValidation("book_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	}, "must be one of Reading, Read, Want to Read, DNF")

	httpx.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}, "must be non-empty string")
}

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/books", h.List)
	mux.HandleFunc("POST /api/books", h.Create)
	mux.HandleFunc("PATCH /api/books/{id}", h.Update)
	mux.HandleFunc("DELETE /api/books/{id}", h.Delete)
}

type createBookReq struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	Status Status `json:"status" validate:"omitempty,book_status"`
	Rating int    `json:"rating" validate:"gte=0,lte=5"`
}

type updateBookReq struct {
	Title  *string `json:"title" validate:"omitnil,notblank"`
	Author *string `json:"author" validate:"omitnil,notblank"`
	Status *Status `json:"status" validate:"omitnil,book_status"`
	Rating *int    `json:"rating" validate:"omitnil,gte=0,lte=5"`
}

func (req updateBookReq) patch() Patch {
	return Patch{Title: req.Title, Author: req.Author, Status: req.Status, Rating: req.Rating}
}

// ParseListQuery reads the list parameters the way the API documents them:
// page and pageSize are clamped, unknown statuses disable the filter and
// unknown sort modes fall back to title-asc.
func ParseListQuery(values url.Values) Query {
	q := Query{
		Status:   StatusAll,
		Search:   strings.TrimSpace(values.Get("search")),
		Sort:     SortTitleAsc,
		Page:     clampParam(values.Get("page"), 1, MaxPage, DefaultPage),
		PageSize: clampParam(values.Get("pageSize"), 1, MaxPageSize, DefaultPageSize),
	}
	if status := Status(values.Get("status")); status.Valid() {
		q.Status = status
	}
	if sort := SortMode(values.Get("sort")); sort.Valid() {
		q.Sort = sort
	}
	return q
}

// EncodeListQuery is the inverse of ParseListQuery. Default-valued
// parameters are omitted.
func EncodeListQuery(q Query) url.Values {
	values := url.Values{}
	if q.FiltersStatus() {
		values.Set("status", string(q.Status))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		values.Set("search", search)
	}
	if q.Sort != "" {
		values.Set("sort", string(q.Sort))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return values
}

// clampParam truncates fractional input, bounds it to [lo, hi] and falls
// back to def for missing or non-finite input.
func clampParam(raw string, lo, hi, def int) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	f = math.Trunc(f)
	if f < float64(lo) {
		return lo
	}
	if f > float64(hi) {
		return hi
	}
	return int(f)
}

// List handles GET /api/books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), ParseListQuery(r.URL.Query()))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, page.Items, page.Meta)
}

// Create handles POST /api/books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)

	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", details[0].Message, details)
		return
	}

	created, err := h.service.Create(r.Context(), Draft{
		Title:  req.Title,
		Author: req.Author,
		Status: req.Status,
		Rating: req.Rating,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// Update handles PATCH /api/books/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}

	var req updateBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", details[0].Message, details)
		return
	}

	updated, err := h.service.Update(r.Context(), ByID(id), req.patch())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}

	if err := h.service.Delete(r.Context(), ByID(id)); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

var validationErrors = []error{ErrEmptyPatch, ErrMissingTitle, ErrMissingAuthor, ErrInvalidStatus, ErrInvalidRating}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case slices.ContainsFunc(validationErrors, func(target error) bool { return errors.Is(err, target) }):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	default:
		h.internalError(w, r, err)
	}
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("book handler error: method=%s path=%s request_id=%s error=%v", r.Method, r.URL.Path, httpx.RequestIDFrom(r), err)
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error", nil)
}
