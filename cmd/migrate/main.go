package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"log"
	"os"
	"strings"

	"rag-backend/internal/shared/config"
	"rag-backend/internal/shared/storage/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		sqlDB, err := db.ConnectPostgres(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			log.Printf("failed to connect database: %v", err)
			os.Exit(1)
		}
		defer sqlDB.Close()

		if err := db.RunMigrations(ctx, sqlDB, "postgres"); err != nil {
			log.Printf("failed to run migrations: %v", err)
			os.Exit(1)
		}
		return
	}

	sqlDB, err := db.ConnectSQLite(ctx, cfg.DBPath, opts)
	if err != nil {
		log.Printf("failed to open database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB, "sqlite3"); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
