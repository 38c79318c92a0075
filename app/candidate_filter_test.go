package app

import (
	"context"
	"testing"

	"gotune/adapters/codec"
	"gotune/domain/param"
	"gotune/domain/searchspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodedFlat(t *testing.T) *codec.DecodedSpace {
	t.Helper()
	decoded, err := codec.Decode(flatDefinition(t))
	require.NoError(t, err)
	return decoded
}

func TestFilterCandidates(t *testing.T) {
	filter := NewCandidateFilter(4)
	space := decodedFlat(t)

	candidates := []searchspace.Parameterization{
		{"x1": 0.1, "x2": 0.1}, // member
		{"x1": 0.7, "x2": 0.7}, // violates sum <= 1
		{"x1": 0.5, "x2": 0.4}, // member
		{"x1": 1.5, "x2": 0.1}, // out of domain
		{"x1": 0.2},            // incomplete
	}

	result, err := filter.FilterCandidates(context.Background(), space, candidates, true)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Evaluated)
	assert.Equal(t, 3, result.Rejected)
	require.Len(t, result.Members, 2)
	assert.Equal(t, []bool{true, false, true, false, false}, result.Mask)
	// Input order is preserved.
	assert.Equal(t, candidates[0], result.Members[0])
	assert.Equal(t, candidates[2], result.Members[1])
}

func TestFilterCandidates_Hierarchical(t *testing.T) {
	decoded, err := codec.Decode(hierarchicalDefinition(t))
	require.NoError(t, err)
	filter := NewCandidateFilter(2)

	candidates := []searchspace.Parameterization{
		{"model": "A", "lr": 0.1},
		{"model": "B", "lr": 0.1, "depth": 3}, // inapplicable lr
		{"model": "B", "depth": 3},
	}

	result, err := filter.FilterCandidates(context.Background(), decoded, candidates, true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, result.Mask)
}

func TestFilterCandidates_LargeBatchLeavesOriginalUntouched(t *testing.T) {
	space := decodedFlat(t)
	before := space.Flat.NumParameters()
	filter := NewCandidateFilter(8)

	candidates := make([]searchspace.Parameterization, 200)
	for i := range candidates {
		candidates[i] = searchspace.Parameterization{
			"x1": float64(i%10) / 10.0,
			"x2": 0.05,
		}
	}

	result, err := filter.FilterCandidates(context.Background(), space, candidates, true)
	require.NoError(t, err)
	assert.Equal(t, 200, result.Evaluated)
	assert.Equal(t, before, space.Flat.NumParameters(), "workers must operate on clones")
}

func TestFilterCandidates_Cancelled(t *testing.T) {
	space := decodedFlat(t)
	filter := NewCandidateFilter(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := filter.FilterCandidates(ctx, space, []searchspace.Parameterization{
		{"x1": 0.1, "x2": 0.1},
	}, true)
	assert.Error(t, err)
}

func TestNewCandidateFilter_MinimumConcurrency(t *testing.T) {
	filter := NewCandidateFilter(0)
	space := decodedFlat(t)

	result, err := filter.FilterCandidates(context.Background(), space, []searchspace.Parameterization{
		{"x1": 0.1, "x2": 0.1},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Evaluated)
}

func TestFilterCandidates_RobustIncludesEnvVars(t *testing.T) {
	x := param.MustNewRangeParameter("x", param.TypeFloat, 0, 1)
	temp := param.MustNewRangeParameter("T", param.TypeFloat, -10, 40)
	envDist := param.MustNewDistribution([]string{"T"}, param.DistNormal, 20, 5, false)
	r, err := searchspace.NewRobustSearchSpace(
		[]param.Parameter{x}, []*param.Distribution{envDist}, 4, []param.Parameter{temp}, nil)
	require.NoError(t, err)
	data, err := codec.EncodeRobust(r)
	require.NoError(t, err)
	decoded, err := codec.Decode(data)
	require.NoError(t, err)

	result, err := NewCandidateFilter(2).FilterCandidates(context.Background(), decoded, []searchspace.Parameterization{
		{"x": 0.5, "T": 25.0},
		{"x": 0.5}, // env var missing
	}, true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, result.Mask)
}
