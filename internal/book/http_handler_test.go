package book

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHTTPHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	year := 1999
	testBook := Book{ID: 1, Title: "Atlas", Author: "J. Doe", Year: &year}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, q Query) ([]Book, int, error) {
			assert.Equal(t, "atl", q.Title)
			assert.Equal(t, "kids", q.Genre)
			require.NotNil(t, q.Year)
			assert.Equal(t, 1999, *q.Year)
			assert.Equal(t, 10, q.Limit)
			assert.Equal(t, 10, q.Offset)
			return []Book{testBook}, 11, nil
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books?title=atl&genre=kids&year=1999&page=2&page_size=10", nil)

		handler.List(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data []Book                 `json:"data"`
			Meta map[string]interface{} `json:"meta"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Atlas", body.Data[0].Title)
		assert.EqualValues(t, 2, body.Meta["total_pages"])
		assert.EqualValues(t, 11, body.Meta["total"])
	})

	t.Run("page size is capped", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, q Query) ([]Book, int, error) {
			assert.Equal(t, 100, q.Limit)
			assert.Equal(t, 0, q.Offset)
			return nil, 0, nil
		})

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books?page_size=500", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})

	t.Run("bad year", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books?year=abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("last page that fits", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, q Query) ([]Book, int, error) {
			assert.Equal(t, 21474836*100, q.Offset)
			return nil, 0, nil
		})

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books?page=21474837&page_size=100", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("huge page is rejected", func(t *testing.T) {
		for _, page := range []string{"21474838", "4611686018427387904", "99999999999999999999999"} {
			w := httptest.NewRecorder()
			handler.List(w, httptest.NewRequest(http.MethodGet, "/books?page_size=100&page="+page, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code, page)
			assert.Contains(t, w.Body.String(), `"field":"page"`, page)
		}
	})

	t.Run("non-positive or malformed page reads as the first", func(t *testing.T) {
		for _, page := range []string{"0", "-5", "abc", "-99999999999999999999999"} {
			mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, q Query) ([]Book, int, error) {
				assert.Equal(t, 0, q.Offset, page)
				return nil, 0, nil
			})

			w := httptest.NewRecorder()
			handler.List(w, httptest.NewRequest(http.MethodGet, "/books?page="+page, nil))

			assert.Equal(t, http.StatusOK, w.Code, page)
		}
	})

	t.Run("error", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_GetByID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(123)).Return(Book{ID: 123, Title: "Atlas"}, nil)

		w := httptest.NewRecorder()
		r := withURLParam(httptest.NewRequest(http.MethodGet, "/books/123", nil), "id", "123")

		handler.GetByID(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Atlas")
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(123)).Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := withURLParam(httptest.NewRequest(http.MethodGet, "/books/123", nil), "id", "123")

		handler.GetByID(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := withURLParam(httptest.NewRequest(http.MethodGet, "/books/abc", nil), "id", "abc")

		handler.GetByID(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_TopRated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("returns the top five", func(t *testing.T) {
		avg := 4.5
		mockRepo.EXPECT().TopRated(gomock.Any(), 5).Return([]Book{{ID: 1, Title: "Atlas", AvgRating: &avg, ReviewCount: 2}}, nil)

		w := httptest.NewRecorder()
		handler.TopRated(w, httptest.NewRequest(http.MethodGet, "/recommendations/top-rated", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"avg_rating":4.5`)
		assert.Contains(t, w.Body.String(), `"review_count":2`)
	})

	t.Run("nothing rated yet", func(t *testing.T) {
		mockRepo.EXPECT().TopRated(gomock.Any(), 5).Return(nil, nil)

		w := httptest.NewRecorder()
		handler.TopRated(w, httptest.NewRequest(http.MethodGet, "/recommendations/top-rated", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})

	t.Run("error", func(t *testing.T) {
		mockRepo.EXPECT().TopRated(gomock.Any(), 5).Return(nil, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		handler.TopRated(w, httptest.NewRequest(http.MethodGet, "/recommendations/top-rated", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func multipartRequest(t *testing.T, field, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "books.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/admin/books/import", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestHTTPHandler_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)

		w := httptest.NewRecorder()
		handler.Import(w, multipartRequest(t, "file", "title,author\nAtlas,J. Doe\n,Nobody\n"))

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data ImportResult `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, ImportResult{Imported: 1, Skipped: 1}, body.Data)
	})

	t.Run("missing file field", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Import(w, multipartRequest(t, "upload", "title,author\n"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Import(w, httptest.NewRequest(http.MethodPost, "/admin/books/import", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty file", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Import(w, multipartRequest(t, "file", ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_CSV")
	})
}
