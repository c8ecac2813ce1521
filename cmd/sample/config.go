package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"booksampler/internal/ingest"
	"booksampler/internal/platform/googlebooks"
)

type config struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration
	Ingest      ingest.Config
}

// fileConfig is the optional YAML file named by SAMPLER_CONFIG.
type fileConfig struct {
	APIKey          string   `yaml:"api_key"`
	BaseURL         string   `yaml:"base_url"`
	HTTPTimeout     string   `yaml:"http_timeout"`
	Genres          []string `yaml:"genres"`
	ResultsPerGenre *int     `yaml:"results_per_genre"`
	ItemsPerPage    *int     `yaml:"items_per_page"`
	MaxRecords      *int     `yaml:"max_records"`
	Output          string   `yaml:"output"`
}

func loadEnvFiles() {
	// Do not override environment provided by the runtime.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func loadConfig() (config, error) {
	cfg := config{
		BaseURL: googlebooks.DefaultBaseURL,
		Ingest:  ingest.DefaultConfig(),
	}

	if path := os.Getenv("SAMPLER_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return config{}, err
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c *config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file (%s): %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse YAML (%s): %w", path, err)
	}

	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
		c.HTTPTimeout = d
	}
	if fc.Genres != nil {
		c.Ingest.Genres = fc.Genres
	}
	if fc.ResultsPerGenre != nil {
		c.Ingest.ResultsPerGenre = *fc.ResultsPerGenre
	}
	if fc.ItemsPerPage != nil {
		c.Ingest.ItemsPerPage = *fc.ItemsPerPage
	}
	if fc.MaxRecords != nil {
		c.Ingest.MaxRecords = *fc.MaxRecords
	}
	if fc.Output != "" {
		c.Ingest.OutputPath = fc.Output
	}
	return nil
}

func (c *config) applyEnv() error {
	if v, ok := os.LookupEnv("GOOGLE_BOOKS_API_KEY"); ok {
		c.APIKey = v
	}
	if v := os.Getenv("GOOGLE_BOOKS_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SAMPLER_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SAMPLER_HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv("SAMPLER_GENRES"); v != "" {
		var genres []string
		for _, g := range strings.Split(v, ",") {
			genres = append(genres, strings.TrimSpace(g))
		}
		c.Ingest.Genres = genres
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SAMPLER_RESULTS_PER_GENRE", &c.Ingest.ResultsPerGenre},
		{"SAMPLER_ITEMS_PER_PAGE", &c.Ingest.ItemsPerPage},
		{"SAMPLER_MAX_RECORDS", &c.Ingest.MaxRecords},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v := os.Getenv("SAMPLER_OUTPUT"); v != "" {
		c.Ingest.OutputPath = v
	}
	return nil
}

func (c *config) validate() error {
	if len(c.Ingest.Genres) == 0 {
		return errors.New("at least one genre is required")
	}
	for i, g := range c.Ingest.Genres {
		if g == "" {
			return fmt.Errorf("genre %d is empty", i)
		}
	}
	if c.Ingest.ItemsPerPage <= 0 {
		return fmt.Errorf("items per page must be positive, got %d", c.Ingest.ItemsPerPage)
	}
	if c.Ingest.ResultsPerGenre < 0 {
		return fmt.Errorf("results per genre must not be negative, got %d", c.Ingest.ResultsPerGenre)
	}
	if c.Ingest.MaxRecords <= 0 {
		return fmt.Errorf("max records must be positive, got %d", c.Ingest.MaxRecords)
	}
	if c.Ingest.OutputPath == "" {
		return errors.New("output path is required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must not be negative, got %s", c.HTTPTimeout)
	}
	return nil
}
