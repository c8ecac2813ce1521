package auth

import (
	"context"
	"time"

	"booksampler/internal/user"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=auth

// Accounts is the part of the user service auth relies on.
type Accounts interface {
	Register(ctx context.Context, email, name, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// Revoker records logged-out tokens.
type Revoker interface {
	Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
}
