package ingest

import (
	"time"
)

// DefaultGenres is the fixed search order. A title found under an earlier
// genre wins over the same title found later.
var DefaultGenres = []string{"kids", "technology", "self help", "current affairs", "history"}

// Defaults used by DefaultConfig.
const (
	DefaultResultsPerGenre = 40
	DefaultItemsPerPage    = 40
	DefaultMaxRecords      = 200
	DefaultOutputPath      = "books.csv"
)

// Config controls one sampler run.
type Config struct {
	Genres []string
	// ResultsPerGenre bounds the startIndex windows requested per genre.
	ResultsPerGenre int
	// ItemsPerPage is sent as maxResults on every request.
	ItemsPerPage int
	// MaxRecords caps the deduplicated rows written.
	MaxRecords int
	OutputPath string
}

// DefaultConfig returns the standard sampler settings. The genre slice is a
// fresh copy.
func DefaultConfig() Config {
	return Config{
		Genres:          append([]string(nil), DefaultGenres...),
		ResultsPerGenre: DefaultResultsPerGenre,
		ItemsPerPage:    DefaultItemsPerPage,
		MaxRecords:      DefaultMaxRecords,
		OutputPath:      DefaultOutputPath,
	}
}

// GenreStats counts the requests and items of one genre.
type GenreStats struct {
	Genre    string
	Pages    int // requests made
	Rejected int // pages answered with an API error body
	Fetched  int // items normalized
}

// Run summarizes one sampler execution.
type Run struct {
	StartedAt         time.Time
	FinishedAt        *time.Time
	Status            string // RUNNING, COMPLETED, FAILED
	Genres            []GenreStats
	RecordsFetched    int
	PagesRejected     int
	RecordsUnique     int
	DuplicatesDropped int
	RowsWritten       int
	OutputPath        string
	Error             string
}
