package main

import (
	"context"
	"log"

	"stockpilot/internal/config"
	"stockpilot/internal/seed"
	"stockpilot/pkg/database"
	"stockpilot/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	appLog := logger.New(logger.Config(cfg.Logger))
	defer appLog.Sync()

	db, err := database.ConnectDB(cfg.Postgres, appLog)
	if err != nil {
		appLog.Error("database connection failed", zap.Error(err))
		return
	}

	if err := seed.Migrate(db); err != nil {
		appLog.Error("migration failed", zap.Error(err))
		return
	}
	appLog.Info("schema migrated")

	if err := seed.Run(context.Background(), db, cfg.Seed, appLog); err != nil {
		appLog.Error("seeding failed", zap.Error(err))
		return
	}
	appLog.Info("seed complete")
}
