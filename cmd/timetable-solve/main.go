package main

import (
	"log"

	"github.com/noah-isme/classtable-engine/pkg/config"
	"github.com/noah-isme/classtable-engine/pkg/database"
	"github.com/noah-isme/classtable-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	current = buildApp(cfg, logr, db)

	Execute()
}
