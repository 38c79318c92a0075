package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gotune/adapters/codec"
	"gotune/domain/searchspace"

	"golang.org/x/sync/semaphore"
)

// CandidateFilter screens candidate parameterizations against a space's
// membership semantics concurrently. Space objects are single-writer, so
// each worker slot gets its own clone; the shared originals are never
// touched from worker goroutines.
type CandidateFilter struct {
	sem         *semaphore.Weighted
	concurrency int64
}

// FilterResult carries the outcome of a batch screening
type FilterResult struct {
	Members   []searchspace.Parameterization `json:"members"`
	Mask      []bool                         `json:"mask"`
	Evaluated int                            `json:"evaluated"`
	Rejected  int                            `json:"rejected"`
	RuntimeMs int64                          `json:"runtime_ms"`
}

// NewCandidateFilter creates a filter allowing up to concurrency parallel
// membership checks
func NewCandidateFilter(concurrency int64) *CandidateFilter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CandidateFilter{
		sem:         semaphore.NewWeighted(concurrency),
		concurrency: concurrency,
	}
}

// FilterCandidates evaluates every candidate and returns the members in
// input order. The mask has one entry per candidate.
func (f *CandidateFilter) FilterCandidates(ctx context.Context, space *codec.DecodedSpace, candidates []searchspace.Parameterization, checkAll bool) (*FilterResult, error) {
	startTime := time.Now()

	// One clone per worker slot, recycled through a pool channel.
	pool := make(chan membershipChecker, f.concurrency)
	for i := int64(0); i < f.concurrency; i++ {
		pool <- cloneChecker(space)
	}

	mask := make([]bool, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		if err := f.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("candidate filtering cancelled: %w", err)
		}
		wg.Add(1)
		go func(i int, candidate searchspace.Parameterization) {
			defer wg.Done()
			defer f.sem.Release(1)

			worker := <-pool
			mask[i] = worker.CheckMembership(candidate, checkAll)
			pool <- worker
		}(i, candidate)
	}
	wg.Wait()

	result := &FilterResult{
		Mask:      mask,
		Evaluated: len(candidates),
		RuntimeMs: time.Since(startTime).Milliseconds(),
	}
	for i, ok := range mask {
		if ok {
			result.Members = append(result.Members, candidates[i])
		} else {
			result.Rejected++
		}
	}

	log.Printf("[CandidateFilter] Screened %d candidates: %d members, %d rejected in %dms",
		result.Evaluated, len(result.Members), result.Rejected, result.RuntimeMs)
	return result, nil
}

// cloneChecker deep-copies the kind-specific space for one worker slot
func cloneChecker(decoded *codec.DecodedSpace) membershipChecker {
	switch {
	case decoded.Hierarchical != nil:
		return decoded.Hierarchical.Clone()
	case decoded.Robust != nil:
		return decoded.Robust.Clone()
	default:
		return decoded.Flat.Clone()
	}
}
