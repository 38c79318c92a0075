package main

import (
	"log"

	"gotune/adapters/postgres"
	"gotune/app"
	"gotune/internal/config"
	"gotune/internal/rng"
	"gotune/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Report-UI-only entrypoint, reading spaces persisted by the API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewSearchSpaceRepository(db)
	service := app.NewSpaceService(repo, rng.New())

	uiApp, err := ui.NewApp(service, appConfig.Paths.ExportDir)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Printf("Starting gotune report UI on http://localhost:%s", appConfig.Server.UIPort)
	log.Fatal(uiApp.Start(ui.Config{Port: appConfig.Server.UIPort}))
}
