package core

import (
	"testing"
)

// TestNewSpaceIDUniqueness tests that NewSpaceID generates unique identifiers
func TestNewSpaceIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[SpaceID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewSpaceID()
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseSpaceID tests space ID parsing
func TestParseSpaceID(t *testing.T) {
	id := NewSpaceID()
	parsed, err := ParseSpaceID(id.String())
	if err != nil {
		t.Fatalf("Unexpected error parsing %s: %v", id, err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	for _, input := range []string{"", "   ", "not-a-uuid"} {
		if _, err := ParseSpaceID(input); err == nil {
			t.Errorf("Expected error for input '%s', but got none", input)
		}
	}
}
