// Package rng provides the deterministic RNG adapter behind ports.RNGPort.
package rng

import (
	"context"
	"math/rand"
)

// DeterministicRNG implements ports.RNGPort with fully seed-determined
// streams, so digest samplers and dummy-value injection replay exactly.
type DeterministicRNG struct{}

// New creates a deterministic RNG adapter
func New() *DeterministicRNG {
	return &DeterministicRNG{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (r *DeterministicRNG) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream scoped to a space and operation.
// The seed mixes the identifiers so the same space/operation/seed triple
// always replays the same draw stream.
func (r *DeterministicRNG) Stream(ctx context.Context, spaceID, operation string, baseSeed int64) (*rand.Rand, error) {
	seed := baseSeed
	if spaceID != "" {
		seed += int64(hashString(spaceID))
	}
	if operation != "" {
		seed += int64(hashString(operation))
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
