package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoMigrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	// this file lives in cmd/migrate/, so repo root is ../..
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
}

func TestCollectMigrations_ParsesMigrationsDir(t *testing.T) {
	migrations, err := goose.CollectMigrations(repoMigrationsDir(t), 0, goose.MaxVersion)
	require.NoError(t, err)
	assert.NotEmpty(t, migrations)
}

func TestBooksMigration_DeclaresUpsertKey(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(repoMigrationsDir(t), "00001_create_books.sql"))
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS books")
	assert.Contains(t, s, "UNIQUE (title, author)")
	for _, col := range []string{"title", "author", "description", "cover_url", "genres", "year"} {
		assert.True(t, strings.Contains(s, "\n    "+col+" "), "missing column %s", col)
	}
}

func TestAccountsMigration_MatchesRepositories(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(repoMigrationsDir(t), "00002_create_accounts_reviews_favourites.sql"))
	require.NoError(t, err)

	s := string(b)
	// Constraint names the repositories map to domain errors.
	assert.Contains(t, s, "CONSTRAINT users_email_key UNIQUE (email)")
	assert.Contains(t, s, "CONSTRAINT uk_reviews_user_book UNIQUE (user_id, book_id)")
	assert.Contains(t, s, "CONSTRAINT uk_favourites_user_book UNIQUE (user_id, book_id)")
	assert.Contains(t, s, "CHECK (rating BETWEEN 1 AND 5)")
	for _, col := range []string{"avg_rating", "review_count"} {
		assert.Contains(t, s, "ALTER TABLE books ADD COLUMN IF NOT EXISTS "+col)
		assert.Contains(t, s, "ALTER TABLE books DROP COLUMN IF EXISTS "+col)
	}
	for _, table := range []string{"users", "revoked_tokens", "reviews", "favourites"} {
		assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS "+table+" (")
		assert.Contains(t, s, "DROP TABLE IF EXISTS "+table+";")
	}
}
