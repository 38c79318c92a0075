package main

import (
	"context"
	"log"

	"gotune/adapters/api"
	"gotune/adapters/postgres"
	"gotune/adapters/postgres/migrations"
	"gotune/app"
	"gotune/internal/config"
	"gotune/internal/errors"
	"gotune/internal/rng"
	"gotune/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	// Run migrations
	migrator := migrations.NewMigrator(db.DB, appConfig.Database.MigrationsDir)
	if err := migrator.Up(context.Background()); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	// Initialize database
	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Wire adapters and services
	repo := postgres.NewSearchSpaceRepository(db)
	service := app.NewSpaceService(repo, rng.New())
	filter := app.NewCandidateFilter(appConfig.Filter.Concurrency)

	// Start the report UI alongside the API
	uiApp, err := ui.NewApp(service, appConfig.Paths.ExportDir)
	if err != nil {
		log.Fatalf("Failed to initialize report UI: %v", err)
	}
	go func() {
		if err := uiApp.Start(ui.Config{Port: appConfig.Server.UIPort}); err != nil {
			log.Printf("Report UI stopped: %v", err)
		}
	}()

	// Start the API server
	server := api.NewServer(service, filter, appConfig.Sampler.DefaultSeed)
	log.Fatal(server.Start("localhost:" + appConfig.Server.APIPort))
}
