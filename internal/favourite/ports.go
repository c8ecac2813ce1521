package favourite

import (
	"context"

	"booksampler/internal/book"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=favourite

type Repository interface {
	List(ctx context.Context, userID int64) ([]Favourite, error)
	Exists(ctx context.Context, userID, bookID int64) (bool, error)
	Add(ctx context.Context, userID, bookID int64) error
	Remove(ctx context.Context, userID, bookID int64) error
}

// BookFinder confirms a book exists before it is favourited.
type BookFinder interface {
	GetByID(ctx context.Context, id int64) (book.Book, error)
}
