// Package catalog holds the flat book record produced from catalog API items
// and the CSV format those records are exchanged in.
package catalog

import (
	"strings"

	"booksampler/internal/platform/googlebooks"
)

// Record is the normalized six-field form of one catalog item.
type Record struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	Genres      string `json:"genres"`
	Year        string `json:"year"`
}

// Key identifies duplicates. Comparison is exact: no case folding, no trimming.
type Key struct {
	Title  string
	Author string
}

// Key returns the (title, author) pair used for duplicate detection. Two
// records share a key only when both strings are byte-for-byte equal.
func (r Record) Key() Key {
	return Key{Title: r.Title, Author: r.Author}
}

// Normalize maps raw volume info to a Record. Absent fields become "".
func Normalize(info googlebooks.VolumeInfo) Record {
	rec := Record{
		Title:       info.Title,
		Author:      strings.Join(info.Authors, ", "),
		Description: info.Description,
		Genres:      strings.Join(info.Categories, ", "),
		Year:        yearOf(info.PublishedDate),
	}
	if info.ImageLinks != nil {
		rec.CoverURL = info.ImageLinks.Thumbnail
	}
	return rec
}

// yearOf returns the first four characters of a published date, or "" when
// the date is shorter than that. The result is not checked to be numeric.
func yearOf(date string) string {
	r := []rune(date)
	if len(r) < 4 {
		return ""
	}
	return string(r[:4])
}
