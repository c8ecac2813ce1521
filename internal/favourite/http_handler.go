package favourite

import (
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

type stateResp struct {
	BookID    int64 `json:"book_id"`
	Favourite bool  `json:"favourite"`
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.Printf("%s: request_id=%s user_id=%d error=%v", op, httpx.RequestIDFrom(r), httpx.UserIDFrom(r), err)
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

// List handles GET /favourites/my
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	favs, err := h.service.List(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.internalError(w, r, "list favourites", err)
		return
	}
	if favs == nil {
		favs = []Favourite{}
	}
	httpx.JSONSuccess(w, r, favs, nil)
}

// Check handles GET /favourites/book/{bookId}/check
func (h *HTTPHandler) Check(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httpx.PathID(w, r, "bookId")
	if !ok {
		return
	}
	fav, err := h.service.IsFavourite(r.Context(), httpx.UserIDFrom(r), bookID)
	if err != nil {
		h.internalError(w, r, "check favourite", err)
		return
	}
	httpx.JSONSuccess(w, r, stateResp{BookID: bookID, Favourite: fav}, nil)
}

// Add handles POST /favourites/book/{bookId}
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httpx.PathID(w, r, "bookId")
	if !ok {
		return
	}
	err := h.service.Add(r.Context(), httpx.UserIDFrom(r), bookID)
	switch {
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrAlreadyFavourite):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", err.Error(), nil)
	case err != nil:
		h.internalError(w, r, "add favourite", err)
	default:
		httpx.JSONCreated(w, r, stateResp{BookID: bookID, Favourite: true})
	}
}

// Remove handles DELETE /favourites/book/{bookId}
func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httpx.PathID(w, r, "bookId")
	if !ok {
		return
	}
	err := h.service.Remove(r.Context(), httpx.UserIDFrom(r), bookID)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case err != nil:
		h.internalError(w, r, "remove favourite", err)
	default:
		httpx.NoContent(w)
	}
}

// Toggle handles PUT /favourites/book/{bookId}/toggle
func (h *HTTPHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httpx.PathID(w, r, "bookId")
	if !ok {
		return
	}
	fav, err := h.service.Toggle(r.Context(), httpx.UserIDFrom(r), bookID)
	switch {
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case err != nil:
		h.internalError(w, r, "toggle favourite", err)
	default:
		httpx.JSONSuccess(w, r, stateResp{BookID: bookID, Favourite: fav}, nil)
	}
}
