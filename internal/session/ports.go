package session

import (
	"context"
	"time"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=session

// Repository stores the jti of every token revoked before its expiry.
type Repository interface {
	Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
