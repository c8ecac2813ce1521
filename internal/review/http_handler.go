package review

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"booksampler/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type upsertReq struct {
	Text   string `json:"text" validate:"max=10000"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.Printf("%s: request_id=%s user_id=%d error=%v", op, httpx.RequestIDFrom(r), httpx.UserIDFrom(r), err)
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

func nonNil(rs []Review) []Review {
	if rs == nil {
		return []Review{}
	}
	return rs
}

// ListByBook handles GET /reviews/book/{bookId}
func (h *HTTPHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httpx.PathID(w, r, "bookId")
	if !ok {
		return
	}
	reviews, err := h.service.ListByBook(r.Context(), bookID)
	if err != nil {
		h.internalError(w, r, "list book reviews", err)
		return
	}
	httpx.JSONSuccess(w, r, nonNil(reviews), nil)
}

// ListMine handles GET /reviews/my
func (h *HTTPHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListByUser(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.internalError(w, r, "list my reviews", err)
		return
	}
	httpx.JSONSuccess(w, r, nonNil(reviews), nil)
}

// GetMine handles GET /reviews/book/{bookId}/my
func (h *HTTPHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httpx.PathID(w, r, "bookId")
	if !ok {
		return
	}
	rv, err := h.service.GetForUser(r.Context(), httpx.UserIDFrom(r), bookID)
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Review not found", nil)
		return
	}
	if err != nil {
		h.internalError(w, r, "get my review", err)
		return
	}
	httpx.JSONSuccess(w, r, rv, nil)
}

// Upsert handles POST /reviews/book/{bookId}
func (h *HTTPHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httpx.PathID(w, r, "bookId")
	if !ok {
		return
	}

	var req upsertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	rv, err := h.service.CreateOrUpdate(r.Context(), httpx.UserIDFrom(r), bookID, req.Text, req.Rating)
	switch {
	case errors.Is(err, ErrInvalidRating):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
			{Field: "rating", Message: err.Error()},
		})
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case err != nil:
		h.internalError(w, r, "upsert review", err)
	default:
		httpx.JSONSuccess(w, r, rv, nil)
	}
}

// Delete handles DELETE /reviews/{reviewId}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httpx.PathID(w, r, "reviewId")
	if !ok {
		return
	}

	err := h.service.Delete(r.Context(), httpx.UserIDFrom(r), reviewID)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Review not found", nil)
	case errors.Is(err, ErrForbidden):
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case err != nil:
		h.internalError(w, r, "delete review", err)
	default:
		httpx.NoContent(w)
	}
}
