package main

import (
	"context"
	"net/http"
	"time"

	"booksampler/internal/auth"
	"booksampler/internal/book"
	"booksampler/internal/favourite"
	"booksampler/internal/httpx"
	"booksampler/internal/review"
	"booksampler/internal/user"

	"github.com/go-chi/chi/v5"
)

const maxRequestBytes = 10 << 20

type pinger interface {
	Ping(ctx context.Context) error
}

type routerDeps struct {
	books      *book.HTTPHandler
	auth       *auth.HTTPHandler
	users      *user.HTTPHandler
	reviews    *review.HTTPHandler
	favourites *favourite.HTTPHandler

	db             pinger
	jwtSecret      string
	revocations    httpx.RevocationList
	limiter        *httpx.RateLimitMiddleware
	adminSecret    string
	allowedOrigins []string
	enableHSTS     bool
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.SecurityHeadersMiddleware(d.enableHSTS))
	r.Use(httpx.CORSMiddleware(d.allowedOrigins))
	r.Use(httpx.RequestSizeLimitMiddleware(maxRequestBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/books", d.books.List)
	r.Get("/books/{id}", d.books.GetByID)
	r.Get("/recommendations/top-rated", d.books.TopRated)
	r.Get("/reviews/book/{bookId}", d.reviews.ListByBook)

	r.Group(func(r chi.Router) {
		r.Use(d.limiter.Middleware)
		r.Post("/auth/signup", d.auth.Signup)
		r.Post("/auth/login", d.auth.Login)
	})

	// The limiter runs after auth so it keys on the caller's id.
	r.Group(func(r chi.Router) {
		r.Use(httpx.AuthMiddleware(d.jwtSecret, d.revocations))
		r.Use(d.limiter.Middleware)

		r.Post("/auth/logout", d.auth.Logout)
		r.Get("/me", d.users.Me)

		r.Get("/reviews/my", d.reviews.ListMine)
		r.Get("/reviews/book/{bookId}/my", d.reviews.GetMine)
		r.Post("/reviews/book/{bookId}", d.reviews.Upsert)
		r.Delete("/reviews/{reviewId}", d.reviews.Delete)

		r.Get("/favourites/my", d.favourites.List)
		r.Get("/favourites/book/{bookId}/check", d.favourites.Check)
		r.Post("/favourites/book/{bookId}", d.favourites.Add)
		r.Delete("/favourites/book/{bookId}", d.favourites.Remove)
		r.Put("/favourites/book/{bookId}/toggle", d.favourites.Toggle)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(d.limiter.Middleware)
		r.Use(httpx.AdminSecretMiddleware(d.adminSecret))
		r.Post("/books/import", d.books.Import)
	})

	return r
}
