package main

import (
	"context"
	"log"

	"vallet-go/internal/config"
	"vallet-go/internal/db"
	"vallet-go/internal/storage"
)

func main() {
	cfg := config.LoadConfig()

	database, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer database.Close()

	if err := storage.NewPostgresStore(database).Migrate(context.Background()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("vallet_orders table is up to date")
}
