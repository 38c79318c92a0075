package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides deterministic random number streams. Every stochastic
// operation draws from a named stream so runs replay exactly given the
// same seed.
type RNGPort interface {
	// SeededStream returns a stream seeded directly with seed
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream returns a stream whose seed mixes spaceID and operation into
	// baseSeed, so distinct operations on distinct spaces never share a
	// draw sequence
	Stream(ctx context.Context, spaceID, operation string, baseSeed int64) (*rand.Rand, error)
}
