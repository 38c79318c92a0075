package ports

import (
	"context"

	"gotune/domain/core"
	"gotune/models"
)

// SearchSpaceRepository defines the interface for search space persistence
type SearchSpaceRepository interface {
	// SaveSpace inserts or updates a search space record
	SaveSpace(ctx context.Context, record *models.SearchSpaceRecord) error

	// GetSpace retrieves a search space by ID
	GetSpace(ctx context.Context, spaceID core.SpaceID) (*models.SearchSpaceRecord, error)

	// GetSpaceByName retrieves a search space by its unique name
	GetSpaceByName(ctx context.Context, name string) (*models.SearchSpaceRecord, error)

	// ListSpaces returns records ordered by creation time, optionally limited
	ListSpaces(ctx context.Context, limit int) ([]*models.SearchSpaceRecord, error)

	// ListByKind returns records of a single kind (flat/hierarchical/robust)
	ListByKind(ctx context.Context, kind string, limit int) ([]*models.SearchSpaceRecord, error)

	// DeleteSpace removes a search space record
	DeleteSpace(ctx context.Context, spaceID core.SpaceID) error
}
