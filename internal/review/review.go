// Package review stores one rated review per user and book and keeps the
// book's average rating and review count in step with them.
package review

import (
	"errors"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrNotFound      = errors.New("review not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrForbidden     = errors.New("cannot delete another user's review")
)

type Review struct {
	ID        int64     `json:"id" db:"id"`
	BookID    int64     `json:"book_id" db:"book_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Text      string    `json:"text" db:"text"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
