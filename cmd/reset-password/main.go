package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"stockpilot/internal/config"
	"stockpilot/internal/repository"
	"stockpilot/pkg/database"
	"stockpilot/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	email := flag.String("email", "admin@example.com", "account to reset")
	password := flag.String("password", "admin123", "new password")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if len(*password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	db, err := database.ConnectDB(cfg.Postgres, logger.New(logger.Config(cfg.Logger)))
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(ctx, strings.ToLower(*email))
	if err != nil {
		log.Fatalf("user %s not found: %v", *email, err)
	}
	if err := user.SetPassword(*password); err != nil {
		log.Fatalf("hash password: %v", err)
	}
	// also ends every open session
	user.TokenVersion = uuid.New().String()
	if err := users.Update(ctx, user); err != nil {
		log.Fatalf("update user: %v", err)
	}
	log.Printf("Password for %s has been reset", user.Email)
}
