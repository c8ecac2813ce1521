package review

import (
	"context"

	"booksampler/internal/book"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=review

// Repository persists reviews. Upsert and Delete also recompute the owning
// book's aggregates in the same transaction.
type Repository interface {
	Upsert(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (Review, error)
	GetByUserAndBook(ctx context.Context, userID, bookID int64) (Review, error)
	ListByBook(ctx context.Context, bookID int64) ([]Review, error)
	ListByUser(ctx context.Context, userID int64) ([]Review, error)
}

// BookFinder confirms a book exists before it is reviewed.
type BookFinder interface {
	GetByID(ctx context.Context, id int64) (book.Book, error)
}
