package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const booksTable = "books"

var bookColumns = []interface{}{
	"id", "title", "author", "description", "cover_url", "genres", "year",
	"avg_rating", "review_count", "created_at", "updated_at",
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

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresRepo) filtered(q Query) *goqu.SelectDataset {
	ds := r.g.From(booksTable).Prepared(true)

	if q.Title != "" {
		ds = ds.Where(goqu.C("title").ILike("%" + escapeLike(q.Title) + "%"))
	}
	if q.Author != "" {
		ds = ds.Where(goqu.C("author").ILike("%" + escapeLike(q.Author) + "%"))
	}
	if q.Genre != "" {
		ds = ds.Where(goqu.C("genres").ILike("%" + escapeLike(q.Genre) + "%"))
	}
	if q.Year != nil {
		ds = ds.Where(goqu.C("year").Eq(*q.Year))
	}
	return ds
}

type listQuery struct {
	countSQL  string
	countArgs []interface{}
	dataSQL   string
	dataArgs  []interface{}
}

func (r *PostgresRepo) listSQL(q Query) (listQuery, error) {
	var lq listQuery
	ds := r.filtered(q)

	var err error
	lq.countSQL, lq.countArgs, err = ds.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return lq, fmt.Errorf("build count: %w", err)
	}

	lq.dataSQL, lq.dataArgs, err = ds.Select(bookColumns...).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc()).
		Limit(uint(q.Limit)).
		Offset(uint(q.Offset)).
		ToSQL()
	if err != nil {
		return lq, fmt.Errorf("build list: %w", err)
	}
	return lq, nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	lq, err := r.listSQL(q)
	if err != nil {
		return nil, 0, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := pgxscan.Get(timeoutCtx, r.db, &total, lq.countSQL, lq.countArgs...); err != nil {
		return nil, 0, err
	}

	var out []Book
	if err := pgxscan.Select(timeoutCtx, r.db, &out, lq.dataSQL, lq.dataArgs...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	sql, args, err := r.g.From(booksTable).Prepared(true).
		Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b Book
	if err := pgxscan.Get(timeoutCtx, r.db, &b, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) topRatedSQL(limit int) (string, []interface{}, error) {
	return r.g.From(booksTable).Prepared(true).
		Select(bookColumns...).
		Where(goqu.C("avg_rating").IsNotNull()).
		Order(goqu.C("avg_rating").Desc(), goqu.C("review_count").Desc(), goqu.C("id").Asc()).
		Limit(uint(limit)).
		ToSQL()
}

func (r *PostgresRepo) TopRated(ctx context.Context, limit int) ([]Book, error) {
	sql, args, err := r.topRatedSQL(limit)
	if err != nil {
		return nil, fmt.Errorf("build top rated: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out []Book
	if err := pgxscan.Select(timeoutCtx, r.db, &out, sql, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepo) upsertSQL(book *Book) (string, []interface{}, error) {
	var year interface{}
	if book.Year != nil {
		year = *book.Year
	}

	sql, args, err := r.g.Insert(booksTable).Prepared(true).
		Rows(goqu.Record{
			"title":       book.Title,
			"author":      book.Author,
			"description": book.Description,
			"cover_url":   book.CoverURL,
			"genres":      book.Genres,
			"year":        year,
		}).
		OnConflict(goqu.DoUpdate("title, author", goqu.Record{
			"description": goqu.L("EXCLUDED.description"),
			"cover_url":   goqu.L("EXCLUDED.cover_url"),
			"genres":      goqu.L("EXCLUDED.genres"),
			"year":        goqu.L("EXCLUDED.year"),
			"updated_at":  goqu.L("NOW()"),
		})).
		Returning("id", "created_at", "updated_at").
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert: %w", err)
	}
	return sql, args, nil
}

// Upsert inserts the book or updates the row with the same (title, author),
// then fills ID and timestamps from the stored row.
func (r *PostgresRepo) Upsert(ctx context.Context, book *Book) error {
	sql, args, err := r.upsertSQL(book)
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(timeoutCtx, sql, args...).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt); err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}
	return nil
}
