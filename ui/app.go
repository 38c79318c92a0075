package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gotune/adapters/excel"
	"gotune/adapters/report"
	"gotune/app"
	"gotune/domain/core"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App serves HTML search space reports
type App struct {
	router    *chi.Mux
	service   *app.SpaceService
	renderer  *report.Renderer
	exporter  *excel.SummaryExporter
	templates *template.Template
	exportDir string
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the report UI application. When exportDir is non-empty,
// every workbook download also leaves a copy there.
func NewApp(service *app.SpaceService, exportDir string) (*App, error) {
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		renderer:  report.NewRenderer(),
		exporter:  excel.NewSummaryExporter(),
		templates: templates,
		exportDir: exportDir,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// Router returns the chi mux, used by tests
func (a *App) Router() *chi.Mux {
	return a.router
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/spaces/{id}", a.handleSpaceReport)
	a.router.Get("/spaces/{id}/report.md", a.handleSpaceMarkdown)
	a.router.Get("/spaces/{id}/export.xlsx", a.handleSpaceExport)
}

// Start starts the HTTP server
func (a *App) Start(config Config) error {
	addr := ":" + config.Port
	log.Printf("Starting gotune report UI on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// handleIndex lists persisted spaces with links to their reports
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := a.service.ListSpaces(r.Context(), limit)
	if err != nil {
		log.Printf("[UI] Failed to list spaces: %v", err)
		http.Error(w, "Failed to list spaces", http.StatusInternalServerError)
		return
	}

	a.renderTemplate(w, "index.html", map[string]interface{}{
		"Spaces": records,
	})
}

// handleSpaceReport renders the full HTML report for one space
func (a *App) handleSpaceReport(w http.ResponseWriter, r *http.Request) {
	loaded, ok := a.loadSpace(w, r)
	if !ok {
		return
	}

	body := a.renderer.HTML(a.buildReport(loaded))
	a.renderTemplate(w, "report.html", map[string]interface{}{
		"Name": loaded.Record.Name,
		"ID":   loaded.Record.ID,
		"Body": template.HTML(body),
	})
}

// handleSpaceMarkdown serves the raw markdown report
func (a *App) handleSpaceMarkdown(w http.ResponseWriter, r *http.Request) {
	loaded, ok := a.loadSpace(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, a.renderer.Markdown(a.buildReport(loaded)))
}

// handleSpaceExport streams the parameter summary as an .xlsx workbook
func (a *App) handleSpaceExport(w http.ResponseWriter, r *http.Request) {
	loaded, ok := a.loadSpace(w, r)
	if !ok {
		return
	}

	rows, err := a.service.SummaryRows(r.Context(), loaded.Record.ID)
	if err != nil {
		http.Error(w, "Failed to summarize space", http.StatusInternalServerError)
		return
	}
	data, err := a.exporter.ExportBytes(rows)
	if err != nil {
		log.Printf("[UI] Workbook export failed: %v", err)
		http.Error(w, "Failed to render workbook", http.StatusInternalServerError)
		return
	}

	if a.exportDir != "" {
		path := filepath.Join(a.exportDir, loaded.Record.Name+".xlsx")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Printf("[UI] Failed to save export copy to %s: %v", path, err)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", loaded.Record.Name+".xlsx"))
	w.Write(data)
}

// buildReport assembles the kind-specific report sections
func (a *App) buildReport(loaded *app.LoadedSpace) report.SpaceReport {
	rep := report.SpaceReport{
		Name: loaded.Record.Name,
		Kind: loaded.Record.Kind,
	}

	switch {
	case loaded.Space.Hierarchical != nil:
		h := loaded.Space.Hierarchical
		rep.Rows = h.SummaryRows()
		rep.Constraints = h.Constraints()
		rep.TreeRendering = h.HierarchicalStructureString(false)
	case loaded.Space.Robust != nil:
		r := loaded.Space.Robust
		rep.Rows = r.SummaryRows()
		rep.Constraints = r.Constraints()
		rep.NumSamples = r.NumSamples()
		rep.Distributions = r.Distributions()
		rep.Environmental = r.EnvironmentalVariableNames()
		rep.Multiplicative = r.Multiplicative()
	default:
		rep.Rows = loaded.Space.Flat.SummaryRows()
		rep.Constraints = loaded.Space.Flat.Constraints()
	}
	return rep
}

// loadSpace parses the path ID and fetches the space, writing the error
// response itself on failure
func (a *App) loadSpace(w http.ResponseWriter, r *http.Request) (*app.LoadedSpace, bool) {
	spaceID, err := core.ParseSpaceID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid space ID", http.StatusBadRequest)
		return nil, false
	}

	loaded, err := a.service.GetSpace(r.Context(), spaceID)
	if err != nil {
		http.Error(w, "Space not found", http.StatusNotFound)
		return nil, false
	}
	return loaded, true
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
