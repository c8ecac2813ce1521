package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksampler/internal/ingest"
	"booksampler/internal/platform/googlebooks"
)

var samplerEnv = []string{
	"GOOGLE_BOOKS_API_KEY", "GOOGLE_BOOKS_BASE_URL", "SAMPLER_HTTP_TIMEOUT", "SAMPLER_GENRES",
	"SAMPLER_RESULTS_PER_GENRE", "SAMPLER_ITEMS_PER_PAGE", "SAMPLER_MAX_RECORDS", "SAMPLER_OUTPUT",
	"SAMPLER_CONFIG",
}

func clearSamplerEnv(t *testing.T) {
	t.Helper()
	for _, k := range samplerEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearSamplerEnv(t)

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.APIKey)
	assert.Equal(t, googlebooks.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.Equal(t, []string{"kids", "technology", "self help", "current affairs", "history"}, cfg.Ingest.Genres)
	assert.Equal(t, 40, cfg.Ingest.ResultsPerGenre)
	assert.Equal(t, 40, cfg.Ingest.ItemsPerPage)
	assert.Equal(t, 200, cfg.Ingest.MaxRecords)
	assert.Equal(t, "books.csv", cfg.Ingest.OutputPath)
}

func TestLoadConfig_DefaultsAreNotShared(t *testing.T) {
	clearSamplerEnv(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.Ingest.Genres[0] = "changed"

	assert.Equal(t, "kids", ingest.DefaultGenres[0])
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	clearSamplerEnv(t)
	t.Setenv("GOOGLE_BOOKS_API_KEY", "k-123")
	t.Setenv("SAMPLER_GENRES", "poetry, science fiction")
	t.Setenv("SAMPLER_RESULTS_PER_GENRE", "120")
	t.Setenv("SAMPLER_ITEMS_PER_PAGE", "40")
	t.Setenv("SAMPLER_MAX_RECORDS", "50")
	t.Setenv("SAMPLER_OUTPUT", "/tmp/out.csv")
	t.Setenv("SAMPLER_HTTP_TIMEOUT", "15s")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "k-123", cfg.APIKey)
	assert.Equal(t, []string{"poetry", "science fiction"}, cfg.Ingest.Genres)
	assert.Equal(t, 120, cfg.Ingest.ResultsPerGenre)
	assert.Equal(t, 50, cfg.Ingest.MaxRecords)
	assert.Equal(t, "/tmp/out.csv", cfg.Ingest.OutputPath)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearSamplerEnv(t)

	p := filepath.Join(t.TempDir(), "sampler.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
api_key: from-file
genres: [art, music]
max_records: 10
output: file.csv
`), 0644))

	t.Setenv("SAMPLER_CONFIG", p)
	t.Setenv("SAMPLER_OUTPUT", "env.csv")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, []string{"art", "music"}, cfg.Ingest.Genres)
	assert.Equal(t, 10, cfg.Ingest.MaxRecords)
	assert.Equal(t, 40, cfg.Ingest.ItemsPerPage)
	assert.Equal(t, "env.csv", cfg.Ingest.OutputPath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric max records", "SAMPLER_MAX_RECORDS", "lots"},
		{"zero page size", "SAMPLER_ITEMS_PER_PAGE", "0"},
		{"negative results", "SAMPLER_RESULTS_PER_GENRE", "-1"},
		{"empty genre in list", "SAMPLER_GENRES", "kids,,history"},
		{"bad timeout", "SAMPLER_HTTP_TIMEOUT", "soon"},
		{"missing config file", "SAMPLER_CONFIG", "/does/not/exist.yaml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearSamplerEnv(t)
			t.Setenv(tc.key, tc.val)

			_, err := loadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")

	if err := os.WriteFile(p, []byte("SAMPLER_OUTPUT=from_file.csv\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("SAMPLER_OUTPUT", "from_env.csv")

	cwd, _ := os.Getwd()
	_ = os.Chdir(tmp)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	loadEnvFiles()

	if got := os.Getenv("SAMPLER_OUTPUT"); got != "from_env.csv" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
}
