package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"gotune/adapters/codec"
	"gotune/domain/core"
	"gotune/domain/searchspace"
	"gotune/models"
	"gotune/ports"
)

// SpaceService orchestrates search space lifecycle: creation, retrieval,
// membership checking and digest extraction. Definitions are persisted in
// their wire form; every read rehydrates the domain objects through the
// codec so the repository never holds live domain state.
type SpaceService struct {
	repo    ports.SearchSpaceRepository
	rngPort ports.RNGPort
}

// NewSpaceService creates a space service
func NewSpaceService(repo ports.SearchSpaceRepository, rngPort ports.RNGPort) *SpaceService {
	return &SpaceService{repo: repo, rngPort: rngPort}
}

// LoadedSpace pairs a persisted record with its rehydrated domain object
type LoadedSpace struct {
	Record *models.SearchSpaceRecord
	Space  *codec.DecodedSpace
}

// CreateSpace validates and persists a definition in wire form. The
// definition must decode cleanly; invalid definitions never reach storage.
func (s *SpaceService) CreateSpace(ctx context.Context, name string, definition []byte) (*models.SearchSpaceRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("space name is required")
	}

	decoded, err := codec.Decode(definition)
	if err != nil {
		return nil, fmt.Errorf("invalid space definition: %w", err)
	}

	id := core.NewSpaceID()
	now := core.Now()

	base := baseSpace(decoded)
	record := &models.SearchSpaceRecord{
		ID:             id,
		Name:           name,
		Kind:           decoded.Kind,
		Definition:     definition,
		DefinitionHash: core.NewDefinitionHash(definition).String(),
		NumParameters:  base.NumParameters(),
		NumConstraints: len(base.Constraints()),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.SaveSpace(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist space: %w", err)
	}

	log.Printf("[SpaceService] Created %s space %q (%s) with %d parameters",
		record.Kind, name, id, record.NumParameters)
	return record, nil
}

// GetSpace loads and rehydrates a space by ID
func (s *SpaceService) GetSpace(ctx context.Context, spaceID core.SpaceID) (*LoadedSpace, error) {
	record, err := s.repo.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return s.rehydrate(record)
}

// GetSpaceByName loads and rehydrates a space by name
func (s *SpaceService) GetSpaceByName(ctx context.Context, name string) (*LoadedSpace, error) {
	record, err := s.repo.GetSpaceByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.rehydrate(record)
}

// ListSpaces returns persisted records without rehydrating definitions
func (s *SpaceService) ListSpaces(ctx context.Context, limit int) ([]*models.SearchSpaceRecord, error) {
	return s.repo.ListSpaces(ctx, limit)
}

// ListSpacesByKind returns persisted records of a single kind
func (s *SpaceService) ListSpacesByKind(ctx context.Context, kind string, limit int) ([]*models.SearchSpaceRecord, error) {
	if !models.IsValidSpaceKind(kind) {
		return nil, fmt.Errorf("invalid space kind %q", kind)
	}
	return s.repo.ListByKind(ctx, kind, limit)
}

// DeleteSpace removes a persisted space
func (s *SpaceService) DeleteSpace(ctx context.Context, spaceID core.SpaceID) error {
	if err := s.repo.DeleteSpace(ctx, spaceID); err != nil {
		return err
	}
	log.Printf("[SpaceService] Deleted space %s", spaceID)
	return nil
}

func (s *SpaceService) rehydrate(record *models.SearchSpaceRecord) (*LoadedSpace, error) {
	decoded, err := codec.Decode(record.Definition)
	if err != nil {
		return nil, fmt.Errorf("stored definition for space %s is corrupt: %w", record.ID, err)
	}
	return &LoadedSpace{Record: record, Space: decoded}, nil
}

// CheckMembership evaluates a parameterization against the space's kind-
// specific membership semantics
func (s *SpaceService) CheckMembership(ctx context.Context, spaceID core.SpaceID, p searchspace.Parameterization, checkAll bool) (bool, error) {
	loaded, err := s.GetSpace(ctx, spaceID)
	if err != nil {
		return false, err
	}
	return checker(loaded.Space).CheckMembership(p, checkAll), nil
}

// ExplainMembership returns the membership verdict together with the
// raising check's error, so callers can surface why a candidate failed
func (s *SpaceService) ExplainMembership(ctx context.Context, spaceID core.SpaceID, p searchspace.Parameterization, checkAll bool) (bool, string, error) {
	loaded, err := s.GetSpace(ctx, spaceID)
	if err != nil {
		return false, "", err
	}
	if err := checker(loaded.Space).RequireMembership(p, checkAll); err != nil {
		return false, err.Error(), nil
	}
	return true, "", nil
}

// Digest extracts the model-facing snapshot of a space. Robust spaces bind
// their samplers to a deterministic stream derived from spaceID and seed.
func (s *SpaceService) Digest(ctx context.Context, spaceID core.SpaceID, seed int64) (*searchspace.SearchSpaceDigest, error) {
	loaded, err := s.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	if loaded.Space.Robust != nil {
		stream, err := s.rngPort.Stream(ctx, spaceID.String(), "digest", seed)
		if err != nil {
			return nil, fmt.Errorf("failed to create digest RNG stream: %w", err)
		}
		return searchspace.ExtractRobustDigest(loaded.Space.Robust, stream)
	}
	return searchspace.ExtractDigest(baseSpace(loaded.Space))
}

// SummaryRows returns the tabular projection of a space's parameters
func (s *SpaceService) SummaryRows(ctx context.Context, spaceID core.SpaceID) ([]searchspace.SummaryRow, error) {
	loaded, err := s.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return baseSpace(loaded.Space).SummaryRows(), nil
}

// DummyStream returns the deterministic stream used for random dummy-value
// injection during observation flattening
func (s *SpaceService) DummyStream(ctx context.Context, spaceID core.SpaceID, seed int64) (*rand.Rand, error) {
	return s.rngPort.Stream(ctx, spaceID.String(), "flatten-dummies", seed)
}

// membershipChecker is the kind-independent view the service dispatches
// membership calls through; each space kind shadows these methods.
type membershipChecker interface {
	CheckMembership(p searchspace.Parameterization, checkAll bool) bool
	RequireMembership(p searchspace.Parameterization, checkAll bool) error
}

func checker(decoded *codec.DecodedSpace) membershipChecker {
	switch {
	case decoded.Hierarchical != nil:
		return decoded.Hierarchical
	case decoded.Robust != nil:
		return decoded.Robust
	default:
		return decoded.Flat
	}
}

// baseSpace returns the flat parameter view of any space kind
func baseSpace(decoded *codec.DecodedSpace) *searchspace.SearchSpace {
	switch {
	case decoded.Hierarchical != nil:
		return &decoded.Hierarchical.SearchSpace
	case decoded.Robust != nil:
		return &decoded.Robust.SearchSpace
	default:
		return decoded.Flat
	}
}
