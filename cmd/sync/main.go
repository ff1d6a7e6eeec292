package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bizmatch/internal/app"
	"bizmatch/internal/config"
	"bizmatch/internal/database/migration"
	"bizmatch/migrations"
)

// One-shot catalog sync for cron jobs and manual backfills.
func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall sync timeout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer migCancel()
	if err := (migration.Runner{FS: migrations.Files}).Run(migCtx, c.DB.SQLDB()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	summary, err := c.SyncUsecase.RunAll(ctx)
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}

	logger.Printf("[Sync] Done: %d/%d source(s) ok, %d program(s) upserted",
		summary.Succeeded, summary.Total, summary.ProgramCount)
	for _, r := range summary.Results {
		status := "ok"
		if !r.Success {
			status = "failed: " + r.Error
		}
		logger.Printf("[Sync] %-10s %4d record(s) %6dms %s", r.DataSource, r.ProgramCount, r.DurationMS, status)
	}
	if summary.Failed > 0 {
		_ = c.Close()
		os.Exit(1)
	}
}
