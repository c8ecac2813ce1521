package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	usersTable        = "users"
	uniqueViolation   = "23505"
	usersEmailKeyName = "users_email_key"
)

var userColumns = []interface{}{
	"id", "email", "name", "password_hash", "role", "created_at", "updated_at",
}

type PostgresRepo struct {
	db      *pgxpool.Pool
	g       goqu.DialectWrapper
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, g: goqu.Dialect("postgres"), timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) createSQL(u *User) (string, []interface{}, error) {
	return r.g.Insert(usersTable).Prepared(true).
		Rows(goqu.Record{
			"email":         u.Email,
			"name":          u.Name,
			"password_hash": u.PasswordHash,
			"role":          u.Role,
		}).
		Returning("id", "created_at", "updated_at").
		ToSQL()
}

// Create inserts u and fills its ID and timestamps. A concurrent signup with
// the same email surfaces as ErrAlreadyExists.
func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	sql, args, err := r.createSQL(u)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = r.db.QueryRow(timeoutCtx, sql, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == usersEmailKeyName {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepo) getSQL(col string, val interface{}) (string, []interface{}, error) {
	return r.g.From(usersTable).Prepared(true).
		Select(userColumns...).
		Where(goqu.C(col).Eq(val)).
		Limit(1).
		ToSQL()
}

func (r *PostgresRepo) getBy(ctx context.Context, col string, val interface{}) (User, error) {
	sql, args, err := r.getSQL(col, val)
	if err != nil {
		return User{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var u User
	if err := pgxscan.Get(timeoutCtx, r.db, &u, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (User, error) {
	return r.getBy(ctx, "id", id)
}
