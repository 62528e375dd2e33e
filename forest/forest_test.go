package forest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kforest/sampling"
	"github.com/hupe1980/kforest/tree"
	"github.com/hupe1980/kforest/vector"
)

func clustered(t *testing.T, dims, clusters, samples int, seed int64) ([]vector.Point, []int) {
	t.Helper()

	spec := sampling.ClusterSpec{
		Dimensions: dims,
		Clusters:   clusters,
		MinValue:   -10,
		MaxValue:   10,
		MinStd:     0.5,
		MaxStd:     0.5,
		MinSamples: samples,
		MaxSamples: samples,
	}

	points, labels, _, err := sampling.NewRNG(seed).ClusteredPoints(spec)
	require.NoError(t, err)

	out := make([]vector.Point, len(points))
	for i, p := range points {
		out[i] = p
	}
	return out, labels
}

func TestNew(t *testing.T) {
	points, _ := clustered(t, 8, 4, 25, 1)

	ix, err := New(points, WithNumTrees(4), WithSeed(7), WithWorkers(2))
	require.NoError(t, err)

	assert.Equal(t, 8, ix.Dim())
	assert.Equal(t, 100, ix.Len())
	require.Len(t, ix.Trees(), 4)

	for _, tr := range ix.Trees() {
		assert.NoError(t, tr.Validate(points))
		assert.Equal(t, 2*len(points)-1, tr.Len())
	}

	st := ix.Stats()
	assert.Equal(t, 4, st.NumTrees)
	assert.Equal(t, 100, st.NumPoints)
	assert.Equal(t, 4*(2*len(points)-1), st.NumNodes)
	assert.GreaterOrEqual(t, st.MaxDepth, 7)
}

func TestNewErrors(t *testing.T) {
	points, _ := clustered(t, 3, 2, 5, 1)

	tests := []struct {
		name   string
		points []vector.Point
		opts   []Option
		target error
	}{
		{"empty", nil, nil, vector.ErrEmptyInput},
		{"no trees", points, []Option{WithNumTrees(0)}, ErrInvalidConfiguration},
		{"no search limit", points, []Option{WithSearchLimit(0)}, ErrInvalidConfiguration},
		{"no split dimensions", points, []Option{WithNumCandidateSplitDimensions(0)}, ErrInvalidConfiguration},
		{"too many split dimensions", points, []Option{WithNumCandidateSplitDimensions(4)}, vector.ErrDimension},
		{"mixed dimensions", []vector.Point{{1, 2}, {1, 2, 3}}, []Option{WithNumCandidateSplitDimensions(1)}, vector.ErrDimension},
		{"negative workers", points, []Option{WithWorkers(-1)}, ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithNumCandidateSplitDimensions(3)}, tt.opts...)
			_, err := New(tt.points, opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.NumTrees)
	assert.Equal(t, 100, cfg.SearchLimit)
	assert.Equal(t, 5, cfg.NumCandidateSplitDimensions)
	assert.NoError(t, cfg.Validate())

	var ce *tree.ConfigError
	err := Config{NumTrees: 1, SearchLimit: 0, NumCandidateSplitDimensions: 1}.Validate()
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "searchLimit", ce.Field)
}

func TestApproximateNearestNeighborFindsIndexedPoint(t *testing.T) {
	points, _ := clustered(t, 6, 5, 40, 3)

	// With a limit above the leaf count the search is exhaustive.
	ix, err := New(points, WithSearchLimit(len(points)*10), WithSeed(3))
	require.NoError(t, err)

	for i, p := range points {
		got, err := ix.ApproximateNearestNeighbor(p)
		require.NoError(t, err)
		assert.Equal(t, float32(0), vectorDist(t, points[got], p), "query %d", i)
	}
}

func TestApproximateNearestNeighborSingleTree(t *testing.T) {
	points := []vector.Point{{0, 0}, {10, 10}, {-5, 3}}

	ix, err := New(points, WithNumTrees(1), WithSearchLimit(1), WithNumCandidateSplitDimensions(1))
	require.NoError(t, err)

	got, err := ix.ApproximateNearestNeighbor(vector.Point{9, 9})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, len(points))
}

func TestApproximateNearestNeighborClusteredRecall(t *testing.T) {
	points, labels := clustered(t, 32, 16, 64, 11)

	ix, err := New(points, WithSeed(5))
	require.NoError(t, err)

	// Queries sit close to an indexed point, far from every other cluster.
	rng := sampling.NewRNG(99)
	hits := 0
	for range 200 {
		i := rng.Intn(len(points))
		q := jitter(points[i], rng)

		got, err := ix.ApproximateNearestNeighbor(q)
		require.NoError(t, err)
		if labels[got] == labels[i] {
			hits++
		}
	}
	assert.GreaterOrEqual(t, hits, 190)
}

func TestSearch(t *testing.T) {
	points, _ := clustered(t, 4, 3, 30, 2)

	ix, err := New(points, WithSearchLimit(10*len(points)), WithNumCandidateSplitDimensions(3), WithSeed(1))
	require.NoError(t, err)

	query := points[0]
	res, err := ix.Search(query, 10)
	require.NoError(t, err)
	require.Len(t, res, 10)

	assert.Equal(t, float32(0), res[0].Distance)

	seen := map[int]bool{}
	for i, n := range res {
		assert.False(t, seen[n.Index], "duplicate %d", n.Index)
		seen[n.Index] = true
		assert.Equal(t, vectorDist(t, points[n.Index], query), n.Distance)
		if i > 0 {
			assert.LessOrEqual(t, res[i-1].Distance, n.Distance)
		}
	}

	// Exhaustive limit: the hits are the true ten nearest.
	exact := make([]float32, len(points))
	for i, p := range points {
		exact[i] = vectorDist(t, p, query)
	}
	worse := 0
	for _, d := range exact {
		if d < res[len(res)-1].Distance {
			worse++
		}
	}
	assert.LessOrEqual(t, worse, 9)
}

func TestSearchMoreThanIndexed(t *testing.T) {
	points := []vector.Point{{1}, {2}, {3}}

	ix, err := New(points, WithNumCandidateSplitDimensions(1), WithSearchLimit(50))
	require.NoError(t, err)

	res, err := ix.Search(vector.Point{2.2}, 10)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, 1, res[0].Index)
	assert.Equal(t, 2, res[1].Index)
	assert.Equal(t, 0, res[2].Index)
}

func TestSearchErrors(t *testing.T) {
	ix, err := New([]vector.Point{{1, 2}, {3, 4}}, WithNumCandidateSplitDimensions(2))
	require.NoError(t, err)

	_, err = ix.Search(vector.Point{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = ix.ApproximateNearestNeighbor(vector.Point{1, 2, 3})
	assert.ErrorIs(t, err, vector.ErrDimension)

	var dm *vector.ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Actual)
}

func TestDeterministic(t *testing.T) {
	points, _ := clustered(t, 5, 4, 20, 4)

	a, err := New(points, WithSeed(42), WithWorkers(1))
	require.NoError(t, err)
	b, err := New(points, WithSeed(42), WithWorkers(8))
	require.NoError(t, err)

	for i := range a.Trees() {
		assert.Equal(t, a.Trees()[i].Leaves(), b.Trees()[i].Leaves())
	}

	rng := sampling.NewRNG(1)
	for range 20 {
		q := rng.UniformVector(5, -10, 10)
		x, err := a.Search(q, 3)
		require.NoError(t, err)
		y, err := b.Search(q, 3)
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}
}

// TestBoundsAdmissible checks every subtree the search reaches: its bound
// must not exceed the distance to any point below it, and must not be lower
// than the bound of the entry it came from.
func TestBoundsAdmissible(t *testing.T) {
	points, _ := clustered(t, 6, 8, 30, 8)

	ix, err := New(points, WithNumTrees(3), WithSearchLimit(60), WithSeed(2))
	require.NoError(t, err)

	minDist := make([]map[tree.NodeID]float32, len(ix.Trees()))
	for ti := range minDist {
		minDist[ti] = map[tree.NodeID]float32{}
	}

	rng := sampling.NewRNG(17)
	for range 25 {
		q := rng.UniformVector(6, -12, 12)

		for ti, tr := range ix.Trees() {
			clear(minDist[ti])
			subtreeMin(tr, tr.Root(), points, q, minDist[ti])
		}

		visits := 0
		s := getSearcher()
		ix.search(s, q, 1, func(ti int, id tree.NodeID, parentBound, bound float32) {
			visits++
			assert.GreaterOrEqual(t, bound, parentBound)
			assert.LessOrEqual(t, bound, minDist[ti][id]*(1+1e-5)+1e-5)
		})
		putSearcher(s)

		assert.Positive(t, visits)
	}
}

func subtreeMin(tr *tree.Tree, id tree.NodeID, points []vector.Point, q vector.Point, out map[tree.NodeID]float32) float32 {
	n := tr.Node(id)
	var d float32
	if n.IsLeaf() {
		d, _ = vector.SquaredL2(points[n.Point], q)
	} else {
		d = min(subtreeMin(tr, n.Left, points, q, out), subtreeMin(tr, n.Right, points, q, out))
	}
	out[id] = d
	return d
}

func vectorDist(t *testing.T, a, b vector.Point) float32 {
	t.Helper()
	d, err := vector.SquaredL2(a, b)
	require.NoError(t, err)
	return d
}

func jitter(p vector.Point, rng *sampling.RNG) vector.Point {
	out := make(vector.Point, len(p))
	for i, v := range p {
		out[i] = v + float32(rng.Float64()-0.5)*0.2
	}
	return out
}

func BenchmarkSearch(b *testing.B) {
	rng := sampling.NewRNG(1)
	raw := rng.UniformVectors(10000, 64, -1, 1)
	points := make([]vector.Point, len(raw))
	for i, p := range raw {
		points[i] = p
	}

	ix, err := New(points)
	if err != nil {
		b.Fatal(err)
	}

	q := rng.UniformVector(64, -1, 1)
	b.ResetTimer()
	for range b.N {
		if _, err := ix.Search(q, 10); err != nil {
			b.Fatal(err)
		}
	}
}
