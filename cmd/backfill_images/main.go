// Command backfill_images rewrites every stored product images value into the
// {main, gallery} shape. Safe to run more than once.
package main

import (
	"context"
	"flag"
	"time"

	"pharma-catalog/internal/config"
	"pharma-catalog/internal/database"
	"pharma-catalog/internal/logger"
	"pharma-catalog/internal/repository"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall deadline for the backfill")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewStderr().Fatal("load config", "error", err)
	}
	log, err := logger.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		logger.NewStderr().Fatal("init logger", "error", err)
	}
	defer log.Sync()

	if cfg.UsesMemoryStore() {
		log.Fatal("MONGO_URI is required for the backfill")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("connect mongo", "error", err)
	}
	defer database.Disconnect(client)

	repo := repository.NewProductRepository(client.Database(cfg.MongoDB).Collection("products"))
	start := time.Now()
	scanned, updated, err := repo.BackfillImages(ctx)
	if err != nil {
		log.Fatal("backfill failed", "scanned", scanned, "updated", updated, "error", err)
	}
	log.Info("backfill complete", "scanned", scanned, "updated", updated, "elapsed", time.Since(start))
}
