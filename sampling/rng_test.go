package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicesWithoutReplacement(t *testing.T) {
	rng := NewRNG(0)

	sample, err := rng.IndicesWithoutReplacement(100, 1000)
	require.NoError(t, err)
	require.Len(t, sample, 100)

	seen := make(map[int]struct{}, len(sample))
	for _, idx := range sample {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 1000)
		_, dup := seen[idx]
		assert.False(t, dup, "index %d drawn twice", idx)
		seen[idx] = struct{}{}
	}

	t.Run("FullPermutation", func(t *testing.T) {
		perm, err := rng.IndicesWithoutReplacement(10, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, perm)
	})

	t.Run("TooLarge", func(t *testing.T) {
		_, err := rng.IndicesWithoutReplacement(11, 10)
		assert.ErrorIs(t, err, ErrSampleTooLarge)
	})

	t.Run("Negative", func(t *testing.T) {
		_, err := rng.IndicesWithoutReplacement(-1, 10)
		assert.Error(t, err)
	})
}

func TestDeterminism(t *testing.T) {
	a, err := NewRNG(42).IndicesWithoutReplacement(20, 500)
	require.NoError(t, err)
	b, err := NewRNG(42).IndicesWithoutReplacement(20, 500)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	rng := NewRNG(7)
	first := rng.Seeds(4)
	rng.Reset()
	assert.Equal(t, first, rng.Seeds(4))
	assert.Equal(t, int64(7), rng.Seed())
}

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(1)

	v := rng.UniformVector(64, -2, 3)
	require.Len(t, v, 64)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, float32(-2))
		assert.Less(t, x, float32(3))
	}

	vs := rng.UniformVectors(5, 3, 0, 1)
	require.Len(t, vs, 5)
	for _, v := range vs {
		assert.Len(t, v, 3)
		assert.Equal(t, 3, cap(v))
	}
}

func TestNormalVector(t *testing.T) {
	rng := NewRNG(3)

	v, err := rng.NormalVector([]float32{5, -5}, []float32{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{5, -5}, v)

	_, err = rng.NormalVector([]float32{1, 2}, []float32{1})
	assert.Error(t, err)
}

func TestClusteredPoints(t *testing.T) {
	rng := NewRNG(0)
	spec := DefaultClusterSpec()

	points, labels, means, err := rng.ClusteredPoints(spec)
	require.NoError(t, err)
	require.Len(t, points, 50)
	require.Len(t, labels, 50)
	require.Len(t, means, 5)

	counts := make(map[int]int)
	for i, p := range points {
		require.Len(t, p, 2)
		counts[labels[i]]++
	}
	for c := range spec.Clusters {
		assert.Equal(t, 10, counts[c])
	}

	_, _, _, err = rng.ClusteredPoints(ClusterSpec{})
	assert.Error(t, err)
}
