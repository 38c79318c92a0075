package core

import (
	"github.com/google/uuid"
)

// SpaceID identifies a persisted search space. Alias rather than a defined
// type so the postgres driver and JSON codecs see a plain uuid.
type SpaceID = uuid.UUID

// NewSpaceID mints a time-ordered identifier using UUID v7 for sortable
// generation, falling back to v4 when v7 generation fails
func NewSpaceID() SpaceID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id
}

// ParseSpaceID parses the canonical string form of a space ID
func ParseSpaceID(s string) (SpaceID, error) {
	return uuid.Parse(s)
}
