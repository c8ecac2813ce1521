package favourite

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
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ querier = (*pgxpool.Pool)(nil)

type PostgresRepo struct {
	db      querier
	g       goqu.DialectWrapper
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, g: goqu.Dialect("postgres"), timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) listSQL(userID int64) (string, []interface{}, error) {
	return r.g.From(goqu.T("favourites").As("f")).Prepared(true).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("f.book_id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.description"),
			goqu.I("b.cover_url"), goqu.I("b.genres"), goqu.I("b.year"),
			goqu.I("b.avg_rating"), goqu.I("b.review_count"),
			goqu.I("b.created_at"), goqu.I("b.updated_at"),
			goqu.I("f.created_at").As("favourited_at"),
		).
		Where(goqu.I("f.user_id").Eq(userID)).
		Order(goqu.I("f.created_at").Desc(), goqu.I("f.id").Desc()).
		ToSQL()
}

func (r *PostgresRepo) List(ctx context.Context, userID int64) ([]Favourite, error) {
	sql, args, err := r.listSQL(userID)
	if err != nil {
		return nil, fmt.Errorf("build favourite list: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out []Favourite
	if err := pgxscan.Select(timeoutCtx, r.db, &out, sql, args...); err != nil {
		return nil, err
	}
	return out, nil
}

const existsSQL = `SELECT EXISTS(SELECT 1 FROM favourites WHERE user_id = $1 AND book_id = $2)`

func (r *PostgresRepo) Exists(ctx context.Context, userID, bookID int64) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var exists bool
	err := r.db.QueryRow(timeoutCtx, existsSQL, userID, bookID).Scan(&exists)
	return exists, err
}

const addSQL = `INSERT INTO favourites (user_id, book_id) VALUES ($1, $2)`

func (r *PostgresRepo) Add(ctx context.Context, userID, bookID int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(timeoutCtx, addSQL, userID, bookID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrAlreadyFavourite
		case foreignKeyViolation:
			return ErrBookNotFound
		}
	}
	if err != nil {
		return fmt.Errorf("insert favourite: %w", err)
	}
	return nil
}

const removeSQL = `DELETE FROM favourites WHERE user_id = $1 AND book_id = $2`

func (r *PostgresRepo) Remove(ctx context.Context, userID, bookID int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, removeSQL, userID, bookID)
	if err != nil {
		return fmt.Errorf("delete favourite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
