package main

import (
	"context"
	"log"
	"os"

	"gotune/adapters/postgres/migrations"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [migrations_dir]")
	}

	databaseURL := os.Args[1]
	migrationsDir := ""
	if len(os.Args) > 2 {
		migrationsDir = os.Args[2]
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	migrator := migrations.NewMigrator(db.DB, migrationsDir)

	if err := migrator.Up(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := migrator.Status(ctx); err != nil {
		log.Fatalf("Failed to report migration status: %v", err)
	}
}
