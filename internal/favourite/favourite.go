// Package favourite keeps each user's set of favourite books.
package favourite

import (
	"errors"
	"time"

	"booksampler/internal/book"
)

var (
	ErrNotFound         = errors.New("book is not a favourite")
	ErrAlreadyFavourite = errors.New("book is already a favourite")
	ErrBookNotFound     = errors.New("book not found")
)

// Favourite is a book as it appears in a user's list.
type Favourite struct {
	book.Book
	FavouritedAt time.Time `json:"favourited_at" db:"favourited_at"`
}
