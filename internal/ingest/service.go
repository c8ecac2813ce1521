package ingest

import (
	"context"
	"log"
	"time"

	"booksampler/internal/catalog"
)

// Service runs the sampler pipeline.
type Service struct {
	fetcher *Fetcher
	cfg     Config
}

// NewService returns a Service that fetches through client using cfg.
func NewService(client GoogleBooksClient, cfg Config) *Service {
	return &Service{
		fetcher: NewFetcher(client, cfg.ResultsPerGenre, cfg.ItemsPerPage),
		cfg:     cfg,
	}
}

// Collect fetches and normalizes every genre in order. The returned slice is
// the concatenation of per-genre results, duplicates included.
func (s *Service) Collect(ctx context.Context, run *Run) ([]catalog.Record, error) {
	var records []catalog.Record
	for _, genre := range s.cfg.Genres {
		stats := GenreStats{Genre: genre}
		onPage := func(p PageResult) {
			stats.Pages++
			if p.Rejected() {
				stats.Rejected++
			}
		}
		for vol, err := range s.fetcher.Volumes(ctx, genre, onPage) {
			if err != nil {
				run.Genres = append(run.Genres, stats)
				return nil, err
			}
			records = append(records, catalog.Normalize(vol.VolumeInfo))
			stats.Fetched++
		}
		log.Printf("ingest genre=%q pages=%d rejected=%d fetched=%d", genre, stats.Pages, stats.Rejected, stats.Fetched)
		run.Genres = append(run.Genres, stats)
		run.RecordsFetched += stats.Fetched
		run.PagesRejected += stats.Rejected
	}
	return records, nil
}

// Run fetches all genres, deduplicates, truncates to MaxRecords and writes
// the CSV to OutputPath. Transport, decode and write errors abort the run;
// pages the API rejected with an error body only count toward PagesRejected.
func (s *Service) Run(ctx context.Context) (run *Run, err error) {
	run = &Run{
		Status:     "RUNNING",
		StartedAt:  time.Now(),
		OutputPath: s.cfg.OutputPath,
	}

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if err != nil {
			run.Status = "FAILED"
			run.Error = err.Error()
		} else {
			run.Status = "COMPLETED"
		}
	}()

	records, err := s.Collect(ctx, run)
	if err != nil {
		return run, err
	}

	unique := catalog.Dedupe(records)
	run.RecordsUnique = len(unique)
	run.DuplicatesDropped = len(records) - len(unique)

	rows := catalog.Truncate(unique, s.cfg.MaxRecords)
	if err := catalog.WriteCSVFile(s.cfg.OutputPath, rows); err != nil {
		return run, err
	}
	run.RowsWritten = len(rows)

	return run, nil
}
