package main

import (
	"context"
	"log"

	"gotune/adapters/api"
	"gotune/adapters/postgres"
	"gotune/adapters/postgres/migrations"
	"gotune/app"
	"gotune/internal/config"
	"gotune/internal/rng"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// API-only entrypoint: no report UI, for headless deployments.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db.DB, appConfig.Database.MigrationsDir)
	if err := migrator.Up(context.Background()); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	repo := postgres.NewSearchSpaceRepository(db)
	service := app.NewSpaceService(repo, rng.New())
	filter := app.NewCandidateFilter(appConfig.Filter.Concurrency)

	server := api.NewServer(service, filter, appConfig.Sampler.DefaultSeed)
	log.Fatal(server.Start("localhost:" + appConfig.Server.APIPort))
}
