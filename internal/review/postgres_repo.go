package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

func (r *PostgresRepo) selectReviews(where ...exp.Expression) (string, []interface{}, error) {
	return r.g.From(goqu.T("reviews").As("r")).Prepared(true).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("r.user_id")))).
		Select(
			goqu.I("r.id"), goqu.I("r.book_id"), goqu.I("r.user_id"),
			goqu.I("u.name").As("user_name"),
			goqu.I("r.text"), goqu.I("r.rating"),
			goqu.I("r.created_at"), goqu.I("r.updated_at"),
		).
		Where(where...).
		Order(goqu.I("r.created_at").Desc(), goqu.I("r.id").Desc()).
		ToSQL()
}

func (r *PostgresRepo) list(ctx context.Context, where exp.Expression) ([]Review, error) {
	sql, args, err := r.selectReviews(where)
	if err != nil {
		return nil, fmt.Errorf("build review list: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out []Review
	if err := pgxscan.Select(timeoutCtx, r.db, &out, sql, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepo) get(ctx context.Context, q pgxscan.Querier, where ...exp.Expression) (Review, error) {
	sql, args, err := r.selectReviews(where...)
	if err != nil {
		return Review{}, fmt.Errorf("build review get: %w", err)
	}

	var rv Review
	if err := pgxscan.Get(ctx, q, &rv, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return rv, nil
}

func (r *PostgresRepo) ListByBook(ctx context.Context, bookID int64) ([]Review, error) {
	return r.list(ctx, goqu.I("r.book_id").Eq(bookID))
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID int64) ([]Review, error) {
	return r.list(ctx, goqu.I("r.user_id").Eq(userID))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Review, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.get(timeoutCtx, r.db, goqu.I("r.id").Eq(id))
}

func (r *PostgresRepo) GetByUserAndBook(ctx context.Context, userID, bookID int64) (Review, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.get(timeoutCtx, r.db, goqu.I("r.user_id").Eq(userID), goqu.I("r.book_id").Eq(bookID))
}

// Writes lock the book row first so concurrent reviews of one book apply
// their aggregate refresh one after another.
const (
	lockBookSQL = `SELECT id FROM books WHERE id = $1 FOR UPDATE`

	upsertReviewSQL = `
	INSERT INTO reviews (book_id, user_id, text, rating)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, book_id)
	DO UPDATE SET text = EXCLUDED.text, rating = EXCLUDED.rating, updated_at = NOW()
	RETURNING id
	`

	reviewBookSQL   = `SELECT book_id FROM reviews WHERE id = $1`
	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1`

	// ROUND on numeric rounds halves away from zero, so 4.25 becomes 4.3.
	refreshAggregatesSQL = `
	UPDATE books SET
		avg_rating = (SELECT ROUND(AVG(rating)::numeric, 1)::double precision FROM reviews WHERE book_id = $1),
		review_count = (SELECT COUNT(*) FROM reviews WHERE book_id = $1)
	WHERE id = $1
	`
)

func lockBook(ctx context.Context, tx pgx.Tx, bookID int64) error {
	var id int64
	err := tx.QueryRow(ctx, lockBookSQL, bookID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrBookNotFound
	}
	return err
}

// Upsert stores r, replacing text and rating of the user's earlier review of
// the same book, and fills r from the stored row.
func (r *PostgresRepo) Upsert(ctx context.Context, rv *Review) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		if err := lockBook(timeoutCtx, tx, rv.BookID); err != nil {
			return err
		}
		var id int64
		if err := tx.QueryRow(timeoutCtx, upsertReviewSQL, rv.BookID, rv.UserID, rv.Text, rv.Rating).Scan(&id); err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}
		if _, err := tx.Exec(timeoutCtx, refreshAggregatesSQL, rv.BookID); err != nil {
			return fmt.Errorf("refresh book aggregates: %w", err)
		}
		stored, err := r.get(timeoutCtx, tx, goqu.I("r.id").Eq(id))
		if err != nil {
			return err
		}
		*rv = stored
		return nil
	})
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		var bookID int64
		if err := tx.QueryRow(timeoutCtx, reviewBookSQL, id).Scan(&bookID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := lockBook(timeoutCtx, tx, bookID); err != nil {
			return err
		}
		tag, err := tx.Exec(timeoutCtx, deleteReviewSQL, id)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(timeoutCtx, refreshAggregatesSQL, bookID); err != nil {
			return fmt.Errorf("refresh book aggregates: %w", err)
		}
		return nil
	})
}
