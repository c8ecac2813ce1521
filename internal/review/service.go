package review

import (
	"context"
	"errors"
	"fmt"

	"booksampler/internal/book"
)

type Service struct {
	repo  Repository
	books BookFinder
}

func NewService(repo Repository, books BookFinder) *Service {
	return &Service{repo: repo, books: books}
}

func (s *Service) ListByBook(ctx context.Context, bookID int64) ([]Review, error) {
	return s.repo.ListByBook(ctx, bookID)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Review, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) GetForUser(ctx context.Context, userID, bookID int64) (Review, error) {
	return s.repo.GetByUserAndBook(ctx, userID, bookID)
}

// CreateOrUpdate stores userID's review of bookID, replacing the text and
// rating of an earlier one.
func (s *Service) CreateOrUpdate(ctx context.Context, userID, bookID int64, text string, rating int) (Review, error) {
	if rating < MinRating || rating > MaxRating {
		return Review{}, ErrInvalidRating
	}
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return Review{}, ErrBookNotFound
		}
		return Review{}, fmt.Errorf("find book %d: %w", bookID, err)
	}

	r := &Review{BookID: bookID, UserID: userID, Text: text, Rating: rating}
	if err := s.repo.Upsert(ctx, r); err != nil {
		return Review{}, err
	}
	return *r, nil
}

// Delete removes a review its author owns.
func (s *Service) Delete(ctx context.Context, userID, reviewID int64) error {
	r, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, reviewID)
}
