package models

import (
	"gotune/domain/core"
)

// Search space kinds as stored in the database
const (
	SpaceKindFlat         = "flat"
	SpaceKindHierarchical = "hierarchical"
	SpaceKindRobust       = "robust"
)

// SearchSpaceRecord is the persistence shape of a search space definition.
// Definition holds the JSON wire form owned by adapters/codec; the domain
// objects never touch the database directly.
type SearchSpaceRecord struct {
	ID             core.SpaceID   `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Kind           string         `db:"kind" json:"kind"`
	Definition     []byte         `db:"definition" json:"definition"`
	DefinitionHash string         `db:"definition_hash" json:"definition_hash"`
	NumParameters  int            `db:"num_parameters" json:"num_parameters"`
	NumConstraints int            `db:"num_constraints" json:"num_constraints"`
	CreatedAt      core.Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt      core.Timestamp `db:"updated_at" json:"updated_at"`
}

// IsValidSpaceKind reports whether kind is one of the stored kinds
func IsValidSpaceKind(kind string) bool {
	switch kind {
	case SpaceKindFlat, SpaceKindHierarchical, SpaceKindRobust:
		return true
	}
	return false
}
