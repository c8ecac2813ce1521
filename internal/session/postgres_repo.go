package session

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ querier = (*pgxpool.Pool)(nil)

type PostgresRepo struct {
	db      querier
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const revokeSQL = `
	INSERT INTO revoked_tokens (jti, user_id, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (jti) DO NOTHING
`

func (r *PostgresRepo) Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, revokeSQL, jti, userID, expiresAt)
	return err
}

const isRevokedSQL = `
	SELECT EXISTS(
		SELECT 1 FROM revoked_tokens
		WHERE jti = $1 AND expires_at > now()
	)
`

func (r *PostgresRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var exists bool
	err := r.db.QueryRow(timeoutCtx, isRevokedSQL, jti).Scan(&exists)
	return exists, err
}

const deleteExpiredSQL = `DELETE FROM revoked_tokens WHERE expires_at <= now()`

func (r *PostgresRepo) DeleteExpired(ctx context.Context) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, deleteExpiredSQL)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
