package book

import (
	"context"
	"fmt"
	"io"

	"booksampler/internal/catalog"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a list of books matching the query.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.List(ctx, q)
}

// GetByID returns a book by its ID.
func (s *Service) GetByID(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// TopRated returns up to limit rated books, best average first and the most
// reviewed first among ties. Books without reviews are never included.
func (s *Service) TopRated(ctx context.Context, limit int) ([]Book, error) {
	return s.repo.TopRated(ctx, max(1, limit))
}

// Import reads a sample CSV and upserts every row that has both a title and
// an author. Rows missing either are skipped. The first storage error stops
// the import; rows stored before it stay stored.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	records, err := catalog.ReadCSV(r)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}

	for i, rec := range records {
		if rec.Title == "" || rec.Author == "" {
			res.Skipped++
			continue
		}
		b := FromRecord(rec)
		if err := s.repo.Upsert(ctx, &b); err != nil {
			return res, fmt.Errorf("import row %d: %w", i+1, err)
		}
		res.Imported++
	}
	return res, nil
}
