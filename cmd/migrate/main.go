package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	loadEnvFiles()
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		log.Fatalf("migrate config: %v", err)
	}

	if !cfg.needsDB() {
		if err := goose.Create(nil, cfg.Dir, cfg.Name, "sql"); err != nil {
			log.Fatalf("create migration: %v", err)
		}
		log.Printf("migration created: name=%s dir=%s", cfg.Name, cfg.Dir)
		return
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("set goose dialect: %v", err)
	}

	switch cfg.Command {
	case cmdUp:
		if err := goose.UpContext(ctx, db, cfg.Dir); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		log.Printf("migrations applied: dir=%s", cfg.Dir)
	case cmdDown:
		if err := goose.DownContext(ctx, db, cfg.Dir); err != nil {
			log.Fatalf("rollback migration: %v", err)
		}
		log.Printf("migration rolled back: dir=%s", cfg.Dir)
	case cmdStatus:
		if err := goose.StatusContext(ctx, db, cfg.Dir); err != nil {
			log.Fatalf("migration status: %v", err)
		}
	}
}
