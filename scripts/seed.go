//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/fieldflow/fieldflow/internal/database"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/pkg/config"
	"github.com/fieldflow/fieldflow/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	email := os.Getenv("ROOT_EMAIL")
	password := os.Getenv("ROOT_PASSWORD")
	name := os.Getenv("ROOT_NAME")

	if email == "" {
		email = "root@example.com"
	}
	if password == "" {
		password = "root123!"
	}
	if name == "" {
		name = "Root"
	}

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("Root user already exists: %s\n", email)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	root := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         models.RoleRoot,
		IsActive:     true,
	}
	if err := db.Create(&root).Error; err != nil {
		log.Fatalf("failed to create root user: %v", err)
	}

	fmt.Printf("Root user created successfully!\n")
	fmt.Printf("Email: %s\n", root.Email)
}
