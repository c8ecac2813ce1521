// Package auth signs users up, logs them in and out, and issues the bearer
// tokens the rest of the API checks.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"booksampler/internal/platform/crypto"
	"booksampler/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Token is what signup and login hand back to the client.
type Token struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

type Service struct {
	secret   string
	ttl      time.Duration
	accounts Accounts
	revoker  Revoker
}

func NewService(secret string, ttl time.Duration, accounts Accounts, revoker Revoker) *Service {
	return &Service{secret: secret, ttl: ttl, accounts: accounts, revoker: revoker}
}

// dummyHash is compared against when the email is unknown so both login
// failures cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, _ := crypto.HashPassword("not-a-real-password")
	return h
})

func (s *Service) issue(u user.User) (Token, error) {
	token, _, err := crypto.GenerateToken(s.secret, u.ID, u.Role, s.ttl)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Token: token, TokenType: "Bearer", ExpiresIn: int(s.ttl.Seconds())}, nil
}

// Signup registers a USER and logs them in. A taken email yields
// user.ErrAlreadyExists.
func (s *Service) Signup(ctx context.Context, email, name, password string) (Token, user.User, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return Token{}, user.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.accounts.Register(ctx, email, name, hash)
	if err != nil {
		return Token{}, user.User{}, err
	}
	tok, err := s.issue(u)
	return tok, u, err
}

// Login checks the password and issues a token. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		crypto.VerifyPassword(dummyHash(), password)
		return Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Logout revokes token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := crypto.ParseToken(s.secret, token)
	if err != nil {
		return ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return ErrUnauthorized
	}
	return s.revoker.Revoke(ctx, claims.ID, userID, claims.ExpiresAt.Time)
}
