package book

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"booksampler/internal/httpx"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxUploadMemory = 10 << 20
	topRatedLimit   = 5

	// maxOffset bounds (page-1)*page_size so it always fits the OFFSET
	// parameter.
	maxOffset = math.MaxInt32
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// List handles GET /books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		Title:  query.Get("title"),
		Author: query.Get("author"),
		Genre:  query.Get("genre"),
	}

	if yearStr := query.Get("year"); yearStr != "" {
		val, err := strconv.Atoi(yearStr)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
				{Field: "year", Message: "year must be an integer"},
			})
			return
		}
		params.Year = &val
	}

	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page, ok := parsePage(query.Get("page"), pageSize)
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
			{Field: "page", Message: fmt.Sprintf("page must be at most %d for page_size %d", maxOffset/pageSize+1, pageSize)},
		})
		return
	}
	params.Limit = pageSize
	params.Offset = (page - 1) * pageSize

	books, total, err := h.service.List(r.Context(), params)
	if err != nil {
		log.Printf("list books: request_id=%s error=%v", httpx.RequestIDFrom(r), err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if books == nil {
		books = []Book{}
	}

	httpx.JSONSuccess(w, r, books, map[string]interface{}{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}

// parsePage reads the 1-based page number. Missing, malformed and
// non-positive values mean page 1; a page whose offset would not fit
// maxOffset is rejected.
func parsePage(raw string, pageSize int) (int, bool) {
	if raw == "" {
		return 1, true
	}
	page, err := strconv.ParseInt(raw, 10, 64)
	if errors.Is(err, strconv.ErrRange) && raw[0] != '-' {
		return 0, false
	}
	if err != nil || page < 1 {
		return 1, true
	}
	if page-1 > int64(maxOffset/pageSize) {
		return 0, false
	}
	return int(page), true
}

// TopRated handles GET /recommendations/top-rated
func (h *HTTPHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.TopRated(r.Context(), topRatedLimit)
	if err != nil {
		log.Printf("top rated books: request_id=%s error=%v", httpx.RequestIDFrom(r), err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if books == nil {
		books = []Book{}
	}
	httpx.JSONSuccess(w, r, books, nil)
}

// GetByID handles GET /books/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book id", nil)
		return
	}

	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		log.Printf("get book: request_id=%s id=%d error=%v", httpx.RequestIDFrom(r), id, err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Import handles POST /admin/books/import with a multipart "file" field.
func (h *HTTPHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Expected multipart form data", nil)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
			{Field: "file", Message: "file is required"},
		})
		return
	}
	defer file.Close()

	res, err := h.service.Import(r.Context(), file)
	if errors.Is(err, ErrInvalidCSV) {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_CSV", err.Error(), nil)
		return
	}
	if err != nil {
		log.Printf("import books: request_id=%s imported=%d skipped=%d error=%v", httpx.RequestIDFrom(r), res.Imported, res.Skipped, err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "IMPORT_FAILED", "Import failed", nil)
		return
	}

	log.Printf("import books: request_id=%s imported=%d skipped=%d", httpx.RequestIDFrom(r), res.Imported, res.Skipped)
	httpx.JSONSuccess(w, r, res, nil)
}
