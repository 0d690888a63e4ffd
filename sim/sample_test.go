package sim

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestFlip_Extremes(t *testing.T) {
	rng := testRNG(1)
	for i := 0; i < 1000; i++ {
		require.False(t, Flip(rng, 0), "p=0 must never succeed")
		require.False(t, Flip(rng, -0.5), "negative p must never succeed")
		require.True(t, Flip(rng, 1), "p=1 must always succeed")
		require.True(t, Flip(rng, 1.5), "p>1 must always succeed")
	}
}

func TestFlip_Frequency(t *testing.T) {
	rng := testRNG(2)
	hits := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if Flip(rng, 0.3) {
			hits++
		}
	}
	assert.InDelta(t, 0.3, float64(hits)/n, 0.02)
}

func TestAdopt(t *testing.T) {
	rng := testRNG(3)
	for i := 0; i < 500; i++ {
		assert.Equal(t, 0.0, Adopt(rng, 0))
		v := Adopt(rng, 1)
		assert.True(t, v >= 0 && v < 1, "intensity %v outside [0,1)", v)
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	tests := []struct {
		name    string
		k, n    int
		wantErr error
	}{
		{"partial draw", 3, 15, nil},
		{"full draw", 15, 15, nil},
		{"empty draw", 0, 15, nil},
		{"empty range", 0, 0, nil},
		{"too large", 16, 15, ErrSampleTooLarge},
		{"negative k", -1, 15, ErrNegativeCount},
		{"negative n", 1, -1, ErrNegativeCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SampleWithoutReplacement(testRNG(4), tt.k, tt.n)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assertDistinctInRange(t, got, 0, tt.n)
			assert.Len(t, got, tt.k)
		})
	}
}

func TestStratifiedSample_Modes(t *testing.T) {
	tests := []struct {
		name  string
		k     GroupCounts
		sizes GroupCounts
		// perBlock[g] is the number of draws expected in [g*5, g*5+5)
		perBlock []int
		wantLen  int
	}{
		{"scalar of scalar", Scalar(3), Scalar(15), nil, 3},
		{"scalar of groups", Scalar(3), PerGroup(5, 5, 5), nil, 3},
		{"one per group", PerGroup(1, 1, 1), PerGroup(5, 5, 5), []int{1, 1, 1}, 3},
		{"last group only", PerGroup(0, 0, 3), PerGroup(5, 5, 5), []int{0, 0, 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN drawing with a fixed generator
			got, err := StratifiedSample(testRNG(5), tt.k, tt.sizes)

			// THEN the draw is distinct and respects the group blocks
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
			assertDistinctInRange(t, got, 0, 15)
			if tt.perBlock != nil {
				counts := make([]int, 3)
				for _, i := range got {
					counts[i/5]++
				}
				assert.Equal(t, tt.perBlock, counts)
			}
		})
	}
}

func TestStratifiedSample_Errors(t *testing.T) {
	tests := []struct {
		name    string
		k       GroupCounts
		sizes   GroupCounts
		wantErr error
	}{
		{"length mismatch", PerGroup(1, 1), PerGroup(5, 5, 5), ErrShapeMismatch},
		{"per-group k over scalar sizes", PerGroup(1, 1, 1), Scalar(15), ErrShapeMismatch},
		{"scalar too large", Scalar(20), Scalar(15), ErrSampleTooLarge},
		{"group too large", PerGroup(0, 6, 0), PerGroup(5, 5, 5), ErrSampleTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StratifiedSample(testRNG(6), tt.k, tt.sizes)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestStratifiedSample_Deterministic(t *testing.T) {
	a, err := StratifiedSample(testRNG(9), PerGroup(2, 2, 2), PerGroup(5, 5, 5))
	require.NoError(t, err)
	b, err := StratifiedSample(testRNG(9), PerGroup(2, 2, 2), PerGroup(5, 5, 5))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func assertDistinctInRange(t *testing.T, got []int, lo, hi int) {
	t.Helper()
	sorted := slices.Clone(got)
	slices.Sort(sorted)
	assert.Equal(t, len(sorted), len(slices.Compact(slices.Clone(sorted))), "duplicates in %v", got)
	for _, v := range got {
		assert.True(t, v >= lo && v < hi, "%d outside [%d, %d)", v, lo, hi)
	}
}
