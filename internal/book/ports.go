package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, int, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	Upsert(ctx context.Context, book *Book) error
	TopRated(ctx context.Context, limit int) ([]Book, error)
}
