package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"booksampler/internal/ingest"
	"booksampler/internal/platform/googlebooks"
)

const userAgent = "booksampler/1.0"

func main() {
	loadEnvFiles()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := googlebooks.NewClient(cfg.BaseURL, cfg.APIKey, userAgent, cfg.HTTPTimeout)
	svc := ingest.NewService(client, cfg.Ingest)

	log.Printf("sampling genres=%q results_per_genre=%d items_per_page=%d max_records=%d",
		strings.Join(cfg.Ingest.Genres, ","), cfg.Ingest.ResultsPerGenre, cfg.Ingest.ItemsPerPage, cfg.Ingest.MaxRecords)

	run, err := svc.Run(ctx)
	if err != nil {
		log.Fatalf("sample failed: %v", err)
	}

	log.Printf("sample %s fetched=%d unique=%d duplicates=%d written=%d output=%s duration_ms=%d",
		strings.ToLower(run.Status), run.RecordsFetched, run.RecordsUnique, run.DuplicatesDropped,
		run.RowsWritten, run.OutputPath, run.FinishedAt.Sub(run.StartedAt).Milliseconds())
}
