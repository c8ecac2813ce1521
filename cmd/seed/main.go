package main

import (
	"context"
	"flag"
	"log"
	"os"

	"booksampler/internal/book"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	file := flag.String("file", "", "CSV file to import (default $SAMPLER_OUTPUT or books.csv)")
	flag.Parse()

	loadEnvFiles()
	cfg := loadConfig(*file)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(cfg.File)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	svc := book.NewService(book.NewPostgresRepo(pool, cfg.DBTimeout))

	log.Printf("importing file=%s", cfg.File)
	res, err := svc.Import(ctx, f)
	if err != nil {
		log.Fatalf("import failed: imported=%d skipped=%d error=%v", res.Imported, res.Skipped, err)
	}
	log.Printf("import complete: imported=%d skipped=%d", res.Imported, res.Skipped)
}
