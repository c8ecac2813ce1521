package book

import (
	"errors"
	"strconv"
	"time"

	"booksampler/internal/catalog"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrInvalidCSV wraps parse failures of an import file.
var ErrInvalidCSV = errors.New("invalid csv")

// Book is a catalog record as stored in the books table. AvgRating and
// ReviewCount are maintained by the review package; AvgRating is nil until
// the first review.
type Book struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Description string    `json:"description,omitempty" db:"description"`
	CoverURL    string    `json:"cover_url,omitempty" db:"cover_url"`
	Genres      string    `json:"genres,omitempty" db:"genres"`
	Year        *int      `json:"year,omitempty" db:"year"`
	AvgRating   *float64  `json:"avg_rating" db:"avg_rating"`
	ReviewCount int64     `json:"review_count" db:"review_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// FromRecord converts a CSV record. A year that is not an integer is dropped.
func FromRecord(r catalog.Record) Book {
	b := Book{
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		CoverURL:    r.CoverURL,
		Genres:      r.Genres,
	}
	if r.Year != "" {
		if y, err := strconv.Atoi(r.Year); err == nil {
			b.Year = &y
		}
	}
	return b
}

// Query defines filters and pagination for listing books. Title, Author and
// Genre are case-insensitive substring matches.
type Query struct {
	Title  string
	Author string
	Genre  string
	Year   *int
	Limit  int
	Offset int
}

// ImportResult counts the outcome of one CSV import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
