package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotune/adapters/codec"
	"gotune/app"
	"gotune/domain/core"
	"gotune/domain/param"
	"gotune/domain/searchspace"
	"gotune/internal/rng"
	"gotune/models"
	"gotune/ports"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryRepository is an in-memory SearchSpaceRepository for handler tests
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

var _ ports.SearchSpaceRepository = (*memoryRepository)(nil)

func newTestServer() *Server {
	return newTestServerWithSeed(0)
}

func newTestServerWithSeed(defaultSeed int64) *Server {
	service := app.NewSpaceService(newMemoryRepository(), rng.New())
	return NewServer(service, app.NewCandidateFilter(4), defaultSeed)
}

func flatDefinition(t *testing.T) []byte {
	t.Helper()
	x1 := param.MustNewRangeParameter("x1", param.TypeFloat, 0, 1)
	x2 := param.MustNewRangeParameter("x2", param.TypeFloat, 0, 1)
	sum, err := param.NewSumConstraint([]param.Parameter{x1, x2}, true, 1)
	require.NoError(t, err)
	s := searchspace.MustNewSearchSpace([]param.Parameter{x1, x2}, []param.Constraint{sum})
	data, err := codec.EncodeFlat(s)
	require.NoError(t, err)
	return data
}

func robustDefinition(t *testing.T) []byte {
	t.Helper()
	x := param.MustNewRangeParameter("x", param.TypeFloat, 0, 1)
	perturb := param.MustNewDistribution([]string{"x"}, param.DistNormal, 0, 0.1, false)
	r, err := searchspace.NewRobustSearchSpace([]param.Parameter{x}, []*param.Distribution{perturb}, 4, nil, nil)
	require.NoError(t, err)
	data, err := codec.EncodeRobust(r)
	require.NoError(t, err)
	return data
}

func createSpace(t *testing.T, server *Server, name string) core.SpaceID {
	t.Helper()
	return createSpaceFrom(t, server, name, flatDefinition(t))
}

func createSpaceFrom(t *testing.T, server *Server, name string, definition []byte) core.SpaceID {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"name":       name,
		"definition": json.RawMessage(definition),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/spaces", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var record models.SearchSpaceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	return record.ID
}

func TestCreateSpaceEndpoint(t *testing.T) {
	server := newTestServer()
	id := createSpace(t, server, "tuning")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/spaces/"+id.String(), nil)
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var record models.SearchSpaceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "tuning", record.Name)
	assert.Equal(t, models.SpaceKindFlat, record.Kind)
	assert.Equal(t, 2, record.NumParameters)
}

func TestCreateSpaceEndpoint_InvalidDefinition(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"name":"broken","definition":{"kind":"flat","parameters":[{"kind":"range","name":"x","type":"float","lower":2,"upper":1}]}}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/spaces", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListSpacesEndpoint(t *testing.T) {
	server := newTestServer()
	createSpace(t, server, "one")
	createSpace(t, server, "two")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/spaces", nil)
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Spaces []models.SearchSpaceRecord `json:"spaces"`
		Count  int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestListSpacesEndpoint_KindFilter(t *testing.T) {
	server := newTestServer()
	createSpace(t, server, "one")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/spaces?kind=flat", nil)
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/spaces?kind=bogus", nil)
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMembershipEndpoint(t *testing.T) {
	server := newTestServer()
	id := createSpace(t, server, "tuning")

	check := func(params map[string]float64) (bool, string) {
		body, err := json.Marshal(map[string]interface{}{"parameters": params})
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/spaces/"+id.String()+"/membership", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		server.Router().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Member bool   `json:"member"`
			Reason string `json:"reason"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Member, resp.Reason
	}

	member, reason := check(map[string]float64{"x1": 0.3, "x2": 0.3})
	assert.True(t, member)
	assert.Empty(t, reason)

	member, reason = check(map[string]float64{"x1": 0.8, "x2": 0.8})
	assert.False(t, member)
	assert.NotEmpty(t, reason)
}

func TestFilterEndpoint(t *testing.T) {
	server := newTestServer()
	id := createSpace(t, server, "tuning")

	body := []byte(`{"candidates":[{"x1":0.1,"x2":0.1},{"x1":0.9,"x2":0.9}]}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/spaces/"+id.String()+"/filter", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result app.FilterResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, []bool{true, false}, result.Mask)
}

func TestDigestEndpoint(t *testing.T) {
	server := newTestServer()
	id := createSpace(t, server, "tuning")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/spaces/"+id.String()+"/digest?seed=7", nil)
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DigestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"x1", "x2"}, resp.FeatureNames)
	assert.Len(t, resp.Bounds, 2)
	assert.Nil(t, resp.Robust)
}

func TestDigestEndpoint_DefaultSeed(t *testing.T) {
	server := newTestServerWithSeed(42)
	id := createSpaceFrom(t, server, "noisy", robustDefinition(t))

	digest := func(path string) *DigestResponse {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		server.Router().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp DigestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return &resp
	}

	// A request without a seed must replay the configured default seed.
	unseeded := digest("/api/spaces/" + id.String() + "/digest")
	seeded := digest("/api/spaces/" + id.String() + "/digest?seed=42")
	require.NotNil(t, unseeded.Robust)
	assert.Equal(t, seeded.Robust.PerturbationDraws, unseeded.Robust.PerturbationDraws)
}

func TestSummaryEndpoint(t *testing.T) {
	server := newTestServer()
	id := createSpace(t, server, "tuning")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/spaces/"+id.String()+"/summary", nil)
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Columns []string                 `json:"columns"`
		Rows    []searchspace.SummaryRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Rows, 2)
	assert.Equal(t, searchspace.SummaryColumns, resp.Columns)
}

func TestDeleteSpaceEndpoint(t *testing.T) {
	server := newTestServer()
	id := createSpace(t, server, "tuning")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/spaces/"+id.String(), nil)
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/spaces/"+id.String(), nil)
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidSpaceID(t *testing.T) {
	server := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/spaces/not-a-uuid", nil)
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
