package ui

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotune/adapters/codec"
	"gotune/app"
	"gotune/domain/core"
	"gotune/domain/param"
	"gotune/domain/searchspace"
	"gotune/internal/rng"
	"gotune/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	records map[core.SpaceID]*models.SearchSpaceRecord
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: make(map[core.SpaceID]*models.SearchSpaceRecord)}
}

func (r *memoryRepository) SaveSpace(ctx context.Context, record *models.SearchSpaceRecord) error {
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *memoryRepository) GetSpace(ctx context.Context, spaceID core.SpaceID) (*models.SearchSpaceRecord, error) {
	record, ok := r.records[spaceID]
	if !ok {
		return nil, fmt.Errorf("search space %s not found", spaceID)
	}
	return record, nil
}

func (r *memoryRepository) GetSpaceByName(ctx context.Context, name string) (*models.SearchSpaceRecord, error) {
	for _, record := range r.records {
		if record.Name == name {
			return record, nil
		}
	}
	return nil, fmt.Errorf("search space %q not found", name)
}

func (r *memoryRepository) ListSpaces(ctx context.Context, limit int) ([]*models.SearchSpaceRecord, error) {
	var out []*models.SearchSpaceRecord
	for _, record := range r.records {
		out = append(out, record)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepository) ListByKind(ctx context.Context, kind string, limit int) ([]*models.SearchSpaceRecord, error) {
	var out []*models.SearchSpaceRecord
	for _, record := range r.records {
		if record.Kind == kind {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *memoryRepository) DeleteSpace(ctx context.Context, spaceID core.SpaceID) error {
	if _, ok := r.records[spaceID]; !ok {
		return fmt.Errorf("search space %s not found", spaceID)
	}
	delete(r.records, spaceID)
	return nil
}

func newTestApp(t *testing.T) (*App, *app.SpaceService) {
	t.Helper()
	return newTestAppWithExportDir(t, "")
}

func newTestAppWithExportDir(t *testing.T, exportDir string) (*App, *app.SpaceService) {
	t.Helper()
	service := app.NewSpaceService(newMemoryRepository(), rng.New())
	a, err := NewApp(service, exportDir)
	require.NoError(t, err)
	return a, service
}

func hierarchicalRecord(t *testing.T, service *app.SpaceService) *models.SearchSpaceRecord {
	t.Helper()
	model := param.MustNewChoiceParameter("model", param.TypeString, []param.Value{"A", "B"},
		param.WithDependents(map[param.Value][]string{
			"A": {"lr"},
			"B": {"depth"},
		}))
	lr := param.MustNewRangeParameter("lr", param.TypeFloat, 0.001, 1, param.WithLogScale())
	depth := param.MustNewRangeParameter("depth", param.TypeInt, 1, 12)
	h := searchspace.MustNewHierarchicalSearchSpace([]param.Parameter{model, lr, depth}, nil)
	data, err := codec.EncodeHierarchical(h)
	require.NoError(t, err)

	record, err := service.CreateSpace(context.Background(), "models", data)
	require.NoError(t, err)
	return record
}

func TestIndexPage(t *testing.T) {
	a, service := newTestApp(t)
	hierarchicalRecord(t, service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	a.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "models")
	assert.Contains(t, w.Body.String(), "hierarchical")
}

func TestIndexPage_Empty(t *testing.T) {
	a, _ := newTestApp(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	a.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No search spaces yet")
}

func TestSpaceReportPage(t *testing.T) {
	a, service := newTestApp(t)
	record := hierarchicalRecord(t, service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/spaces/"+record.ID.String(), nil)
	a.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "model")
	assert.Contains(t, body, "Hierarchy")
}

func TestSpaceMarkdown(t *testing.T) {
	a, service := newTestApp(t)
	record := hierarchicalRecord(t, service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/spaces/"+record.ID.String()+"/report.md", nil)
	a.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Search Space: models"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
}

func TestSpaceExport(t *testing.T) {
	a, service := newTestApp(t)
	record := hierarchicalRecord(t, service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/spaces/"+record.ID.String()+"/export.xlsx", nil)
	a.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "models.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestSpaceExport_SavesCopyToExportDir(t *testing.T) {
	dir := t.TempDir()
	a, service := newTestAppWithExportDir(t, dir)
	record := hierarchicalRecord(t, service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/spaces/"+record.ID.String()+"/export.xlsx", nil)
	a.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	saved, err := os.ReadFile(filepath.Join(dir, "models.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, w.Body.Bytes(), saved)
}

func TestSpaceReport_UnknownID(t *testing.T) {
	a, _ := newTestApp(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/spaces/"+core.NewSpaceID().String(), nil)
	a.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/spaces/not-a-uuid", nil)
	a.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
