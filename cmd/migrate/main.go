package main

// Apply the embedded schema:
//   go run ./cmd/migrate

import (
	"context"
	"log"

	"recruit-assistant/internal/shared/config"
	"recruit-assistant/internal/shared/storage/db"
	"recruit-assistant/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	telemetry.Init(telemetry.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	if cfg.DBConnectMax > 0 {
		opts.ConnectMaxElapsed = cfg.DBConnectMax
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		log.Fatalf("run migrations: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		telemetry.Warn("migrate.close_failed", map[string]any{"error": err.Error()})
	}
}
