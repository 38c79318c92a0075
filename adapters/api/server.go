package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"gotune/app"
	"gotune/domain/core"
	"gotune/domain/searchspace"
	"gotune/models"

	"github.com/gin-gonic/gin"
)

// Server exposes the search space service over JSON
type Server struct {
	router      *gin.Engine
	service     *app.SpaceService
	filter      *app.CandidateFilter
	defaultSeed int64
}

// NewServer creates the API server and registers routes. defaultSeed is
// used for digest sampler streams when a request carries no seed.
func NewServer(service *app.SpaceService, filter *app.CandidateFilter, defaultSeed int64) *Server {
	s := &Server{
		router:      gin.Default(),
		service:     service,
		filter:      filter,
		defaultSeed: defaultSeed,
	}
	s.setupRoutes()
	return s
}

// Router returns the underlying gin engine, used by tests and for mounting
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	spaces := s.router.Group("/api/spaces")
	{
		spaces.POST("", s.handleCreateSpace)
		spaces.GET("", s.handleListSpaces)
		spaces.GET("/:spaceId", s.handleGetSpace)
		spaces.DELETE("/:spaceId", s.handleDeleteSpace)
		spaces.POST("/:spaceId/membership", s.handleCheckMembership)
		spaces.POST("/:spaceId/filter", s.handleFilterCandidates)
		spaces.GET("/:spaceId/digest", s.handleDigest)
		spaces.GET("/:spaceId/summary", s.handleSummary)
	}
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	log.Printf("Starting gotune API on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateSpaceRequest carries a new space definition in wire form
type CreateSpaceRequest struct {
	Name       string          `json:"name" binding:"required"`
	Definition json.RawMessage `json:"definition" binding:"required"`
}

func (s *Server) handleCreateSpace(c *gin.Context) {
	var req CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := s.service.CreateSpace(c.Request.Context(), req.Name, req.Definition)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleListSpaces(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	var records []*models.SearchSpaceRecord
	var err error
	if kind := c.Query("kind"); kind != "" {
		if !models.IsValidSpaceKind(kind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
			return
		}
		records, err = s.service.ListSpacesByKind(c.Request.Context(), kind, limit)
	} else {
		records, err = s.service.ListSpaces(c.Request.Context(), limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []*models.SearchSpaceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"spaces": records, "count": len(records)})
}

func (s *Server) handleGetSpace(c *gin.Context) {
	spaceID, ok := s.spaceID(c)
	if !ok {
		return
	}

	loaded, err := s.service.GetSpace(c.Request.Context(), spaceID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Space not found"})
		return
	}
	c.JSON(http.StatusOK, loaded.Record)
}

func (s *Server) handleDeleteSpace(c *gin.Context) {
	spaceID, ok := s.spaceID(c)
	if !ok {
		return
	}

	if err := s.service.DeleteSpace(c.Request.Context(), spaceID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Space not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// MembershipRequest carries a single candidate to check
type MembershipRequest struct {
	Parameters searchspace.Parameterization `json:"parameters" binding:"required"`
	CheckAll   *bool                        `json:"check_all"`
}

func (s *Server) handleCheckMembership(c *gin.Context) {
	spaceID, ok := s.spaceID(c)
	if !ok {
		return
	}

	var req MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkAll := true
	if req.CheckAll != nil {
		checkAll = *req.CheckAll
	}

	member, reason, err := s.service.ExplainMembership(c.Request.Context(), spaceID, req.Parameters, checkAll)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{"member": member}
	if reason != "" {
		resp["reason"] = reason
	}
	c.JSON(http.StatusOK, resp)
}

// FilterRequest carries a candidate batch to screen
type FilterRequest struct {
	Candidates []searchspace.Parameterization `json:"candidates" binding:"required"`
	CheckAll   *bool                          `json:"check_all"`
}

func (s *Server) handleFilterCandidates(c *gin.Context) {
	spaceID, ok := s.spaceID(c)
	if !ok {
		return
	}

	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkAll := true
	if req.CheckAll != nil {
		checkAll = *req.CheckAll
	}

	loaded, err := s.service.GetSpace(c.Request.Context(), spaceID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Space not found"})
		return
	}

	result, err := s.filter.FilterCandidates(c.Request.Context(), loaded.Space, req.Candidates, checkAll)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if result.Members == nil {
		result.Members = []searchspace.Parameterization{}
	}
	c.JSON(http.StatusOK, result)
}

// DigestResponse is the JSON projection of a space digest
type DigestResponse struct {
	FeatureNames        []string              `json:"feature_names"`
	Bounds              [][2]float64          `json:"bounds"`
	OrdinalFeatures     []int                 `json:"ordinal_features"`
	CategoricalFeatures []int                 `json:"categorical_features"`
	DiscreteChoices     map[int][]float64     `json:"discrete_choices"`
	TaskFeatures        []int                 `json:"task_features"`
	FidelityFeatures    []int                 `json:"fidelity_features"`
	TargetValues        map[int]float64       `json:"target_values"`
	Robust              *RobustDigestResponse `json:"robust,omitempty"`
}

// RobustDigestResponse carries one realized draw matrix per sampler.
// The sampler closures themselves cannot cross the wire.
type RobustDigestResponse struct {
	Multiplicative         bool        `json:"multiplicative"`
	EnvironmentalVariables []string    `json:"environmental_variables"`
	EnvironmentalDraws     [][]float64 `json:"environmental_draws,omitempty"`
	PerturbationDraws      [][]float64 `json:"perturbation_draws,omitempty"`
}

func (s *Server) handleDigest(c *gin.Context) {
	spaceID, ok := s.spaceID(c)
	if !ok {
		return
	}

	seed := s.defaultSeed
	if raw := c.Query("seed"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seed"})
			return
		}
		seed = parsed
	}

	digest, err := s.service.Digest(c.Request.Context(), spaceID, seed)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, digestResponse(digest))
}

func digestResponse(d *searchspace.SearchSpaceDigest) *DigestResponse {
	resp := &DigestResponse{
		FeatureNames:        d.FeatureNames,
		Bounds:              d.Bounds,
		OrdinalFeatures:     d.OrdinalFeatures,
		CategoricalFeatures: d.CategoricalFeatures,
		DiscreteChoices:     d.DiscreteChoices,
		TaskFeatures:        d.TaskFeatures,
		FidelityFeatures:    d.FidelityFeatures,
		TargetValues:        d.TargetValues,
	}
	if d.Robust != nil {
		robust := &RobustDigestResponse{
			Multiplicative:         d.Robust.Multiplicative,
			EnvironmentalVariables: d.Robust.EnvironmentalVariables,
		}
		if d.Robust.SampleEnvironmental != nil {
			robust.EnvironmentalDraws = d.Robust.SampleEnvironmental()
		}
		if d.Robust.SamplePerturbations != nil {
			robust.PerturbationDraws = d.Robust.SamplePerturbations()
		}
		resp.Robust = robust
	}
	return resp
}

func (s *Server) handleSummary(c *gin.Context) {
	spaceID, ok := s.spaceID(c)
	if !ok {
		return
	}

	rows, err := s.service.SummaryRows(c.Request.Context(), spaceID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": searchspace.SummaryColumns, "rows": rows})
}

// spaceID parses the path parameter, responding with 400 on malformed IDs
func (s *Server) spaceID(c *gin.Context) (core.SpaceID, bool) {
	spaceID, err := core.ParseSpaceID(c.Param("spaceId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid space ID"})
		return core.SpaceID{}, false
	}
	return spaceID, true
}
