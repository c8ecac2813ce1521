// Package session keeps the revocation list that makes logout effective for
// otherwise stateless bearer tokens.
package session

import (
	"context"
	"log"
	"time"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Revoke records jti until expiresAt. Revoking an already revoked jti is a
// no-op.
func (s *Service) Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	return s.repo.Revoke(ctx, jti, userID, expiresAt)
}

func (s *Service) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.repo.IsRevoked(ctx, jti)
}

// RunCleanup deletes expired entries every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *Service) cleanup(ctx context.Context) {
	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("session cleanup: error=%v", err)
		return
	}
	if n > 0 {
		log.Printf("session cleanup: removed=%d", n)
	}
}
