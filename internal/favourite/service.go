package favourite

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

// List returns userID's favourites, most recently added first.
func (s *Service) List(ctx context.Context, userID int64) ([]Favourite, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) IsFavourite(ctx context.Context, userID, bookID int64) (bool, error) {
	return s.repo.Exists(ctx, userID, bookID)
}

func (s *Service) Add(ctx context.Context, userID, bookID int64) error {
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("find book %d: %w", bookID, err)
	}
	return s.repo.Add(ctx, userID, bookID)
}

func (s *Service) Remove(ctx context.Context, userID, bookID int64) error {
	return s.repo.Remove(ctx, userID, bookID)
}

// Toggle flips the favourite state of bookID and reports the new state.
// A concurrent request that already made the same change is not an error.
func (s *Service) Toggle(ctx context.Context, userID, bookID int64) (bool, error) {
	exists, err := s.repo.Exists(ctx, userID, bookID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.repo.Remove(ctx, userID, bookID); err != nil && !errors.Is(err, ErrNotFound) {
			return true, err
		}
		return false, nil
	}
	if err := s.Add(ctx, userID, bookID); err != nil && !errors.Is(err, ErrAlreadyFavourite) {
		return false, err
	}
	return true, nil
}
