package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gotune/domain/core"
	"gotune/models"
	"gotune/ports"

	"github.com/jmoiron/sqlx"
)

// SearchSpaceRepositoryImpl implements SearchSpaceRepository for PostgreSQL
type SearchSpaceRepositoryImpl struct {
	db *sqlx.DB
}

// NewSearchSpaceRepository creates a new PostgreSQL search space repository
func NewSearchSpaceRepository(db *sqlx.DB) ports.SearchSpaceRepository {
	return &SearchSpaceRepositoryImpl{db: db}
}

// SaveSpace inserts or updates a search space record
func (r *SearchSpaceRepositoryImpl) SaveSpace(ctx context.Context, record *models.SearchSpaceRecord) error {
	if !models.IsValidSpaceKind(record.Kind) {
		return fmt.Errorf("invalid space kind %q", record.Kind)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO search_spaces (
			id, name, kind, definition, definition_hash,
			num_parameters, num_constraints, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			definition = EXCLUDED.definition,
			definition_hash = EXCLUDED.definition_hash,
			num_parameters = EXCLUDED.num_parameters,
			num_constraints = EXCLUDED.num_constraints,
			updated_at = EXCLUDED.updated_at`,
		record.ID, record.Name, record.Kind, record.Definition, record.DefinitionHash,
		record.NumParameters, record.NumConstraints, record.CreatedAt, record.UpdatedAt)

	return err
}

// GetSpace retrieves a search space by ID
func (r *SearchSpaceRepositoryImpl) GetSpace(ctx context.Context, spaceID core.SpaceID) (*models.SearchSpaceRecord, error) {
	var record models.SearchSpaceRecord
	err := r.db.GetContext(ctx, &record, `
		SELECT id, name, kind, definition, definition_hash,
			   num_parameters, num_constraints, created_at, updated_at
		FROM search_spaces
		WHERE id = $1`, spaceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("search space %s not found", spaceID)
		}
		return nil, err
	}
	return &record, nil
}

// GetSpaceByName retrieves a search space by its unique name
func (r *SearchSpaceRepositoryImpl) GetSpaceByName(ctx context.Context, name string) (*models.SearchSpaceRecord, error) {
	var record models.SearchSpaceRecord
	err := r.db.GetContext(ctx, &record, `
		SELECT id, name, kind, definition, definition_hash,
			   num_parameters, num_constraints, created_at, updated_at
		FROM search_spaces
		WHERE name = $1`, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("search space %q not found", name)
		}
		return nil, err
	}
	return &record, nil
}

// ListSpaces returns records ordered by creation time, optionally limited
func (r *SearchSpaceRepositoryImpl) ListSpaces(ctx context.Context, limit int) ([]*models.SearchSpaceRecord, error) {
	query := `
		SELECT id, name, kind, definition, definition_hash,
			   num_parameters, num_constraints, created_at, updated_at
		FROM search_spaces
		ORDER BY created_at DESC`

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var records []*models.SearchSpaceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

// ListByKind returns records of a single kind
func (r *SearchSpaceRepositoryImpl) ListByKind(ctx context.Context, kind string, limit int) ([]*models.SearchSpaceRecord, error) {
	if !models.IsValidSpaceKind(kind) {
		return nil, fmt.Errorf("invalid space kind %q", kind)
	}

	query := `
		SELECT id, name, kind, definition, definition_hash,
			   num_parameters, num_constraints, created_at, updated_at
		FROM search_spaces
		WHERE kind = $1
		ORDER BY created_at DESC`

	args := []interface{}{kind}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var records []*models.SearchSpaceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteSpace removes a search space record
func (r *SearchSpaceRepositoryImpl) DeleteSpace(ctx context.Context, spaceID core.SpaceID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM search_spaces WHERE id = $1`, spaceID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("search space %s not found", spaceID)
	}
	return nil
}
