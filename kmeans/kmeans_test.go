package kmeans

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kforest/sampling"
	"github.com/hupe1980/kforest/vector"
)

var variants = []Variant{Lloyd, IndexedLloyd, Flat}

func smallConfig(k int) Config {
	cfg := DefaultConfig()
	cfg.NumClusters = k
	cfg.MaxIterations = 10
	cfg.Epsilon = 1e-3
	cfg.Seed = 1
	cfg.Index = IndexConfig{NumTrees: 4, SearchLimit: 32, NumCandidateSplitDimensions: 1}
	return cfg
}

func clusteredPoints(t *testing.T, spec sampling.ClusterSpec, seed int64) ([]vector.Point, []int, [][]float32) {
	t.Helper()
	raw, labels, means, err := sampling.NewRNG(seed).ClusteredPoints(spec)
	require.NoError(t, err)

	points := make([]vector.Point, len(raw))
	for i, p := range raw {
		points[i] = p
	}
	return points, labels, means
}

func sortByFirst(points []vector.Point) {
	slices.SortFunc(points, func(a, b vector.Point) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		}
		return 0
	})
}

func TestClusterCentroidsTwoGroups(t *testing.T) {
	points := []vector.Point{{0, 0}, {10, 10}, {0.1, 0.1}, {9.9, 9.9}}

	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			for seed := int64(0); seed < 10; seed++ {
				cfg := smallConfig(2)
				cfg.Seed = seed

				e, err := NewStrategy(v, cfg)
				require.NoError(t, err)

				centroids, err := e.ClusterCentroids(context.Background(), points)
				require.NoError(t, err)
				require.Len(t, centroids, 2)

				sortByFirst(centroids)
				assert.InDeltaSlice(t, []float32{0.05, 0.05}, centroids[0], 1e-5, "seed %d", seed)
				assert.InDeltaSlice(t, []float32{9.95, 9.95}, centroids[1], 1e-5, "seed %d", seed)
			}
		})
	}
}

func TestClusterCentroidsShape(t *testing.T) {
	spec := sampling.DefaultClusterSpec()
	spec.Dimensions = 4
	points, _, _ := clusteredPoints(t, spec, 3)

	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			for _, k := range []int{1, 3, 5, len(points)} {
				cfg := smallConfig(k)
				cfg.Index.NumCandidateSplitDimensions = 2

				e, err := NewStrategy(v, cfg)
				require.NoError(t, err)

				centroids, err := e.ClusterCentroids(context.Background(), points)
				require.NoError(t, err)
				require.Len(t, centroids, k)
				for _, c := range centroids {
					assert.Len(t, c, 4)
				}
			}
		})
	}
}

func TestClusterCentroidsDoesNotModifyInput(t *testing.T) {
	points := []vector.Point{{0, 0}, {10, 10}, {0.1, 0.1}, {9.9, 9.9}}
	before := make([]vector.Point, len(points))
	for i, p := range points {
		before[i] = slices.Clone(p)
	}

	for _, v := range variants {
		e, err := NewStrategy(v, smallConfig(2))
		require.NoError(t, err)
		_, err = e.ClusterCentroids(context.Background(), points)
		require.NoError(t, err)
	}

	assert.Equal(t, before, points)
}

func TestClusterCentroidsDeterministic(t *testing.T) {
	spec := sampling.DefaultClusterSpec()
	spec.Clusters = 8
	spec.Dimensions = 6
	points, _, _ := clusteredPoints(t, spec, 9)

	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			cfg := smallConfig(8)
			cfg.Seed = 77
			cfg.MaxIterations = 25
			cfg.Index.NumCandidateSplitDimensions = 3

			a, err := NewStrategy(v, cfg)
			require.NoError(t, err)

			cfg.Workers = 1
			b, err := NewStrategy(v, cfg)
			require.NoError(t, err)

			x, err := a.ClusterCentroids(context.Background(), points)
			require.NoError(t, err)
			y, err := b.ClusterCentroids(context.Background(), points)
			require.NoError(t, err)

			assert.Equal(t, x, y)
		})
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("dimension mismatch", func(t *testing.T) {
		points := []vector.Point{{1, 2, 3}, {1, 2, 3, 4}, {0, 0, 0}}
		e, err := NewStrategy(Lloyd, smallConfig(2))
		require.NoError(t, err)

		_, err = e.ClusterCentroids(ctx, points)
		assert.ErrorIs(t, err, vector.ErrDimension)

		var dm *vector.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 4, dm.Actual)
	})

	t.Run("too few points", func(t *testing.T) {
		points := []vector.Point{{1}, {2}, {3}}
		e, err := NewStrategy(Lloyd, smallConfig(10))
		require.NoError(t, err)

		_, err = e.ClusterCentroids(ctx, points)
		assert.ErrorIs(t, err, ErrTooFewPoints)

		var tf *TooFewPointsError
		require.ErrorAs(t, err, &tf)
		assert.Equal(t, 10, tf.Clusters)
		assert.Equal(t, 3, tf.Points)
	})

	t.Run("empty", func(t *testing.T) {
		for _, v := range variants {
			e, err := NewStrategy(v, smallConfig(1))
			require.NoError(t, err)
			_, err = e.ClusterCentroids(ctx, nil)
			assert.ErrorIs(t, err, ErrEmptyInput)
		}
	})

	t.Run("subsample smaller than clusters", func(t *testing.T) {
		points := []vector.Point{{1}, {2}, {3}, {4}}
		cfg := smallConfig(3)
		cfg.SubsampleSize = 2
		e, err := NewStrategy(Lloyd, cfg)
		require.NoError(t, err)

		_, err = e.ClusterCentroids(ctx, points)
		assert.ErrorIs(t, err, ErrTooFewPoints)
	})

	t.Run("split dimensions exceed dimensionality", func(t *testing.T) {
		points := []vector.Point{{1, 1}, {2, 2}, {3, 3}}
		cfg := smallConfig(2)
		cfg.Index.NumCandidateSplitDimensions = 3
		e, err := NewStrategy(IndexedLloyd, cfg)
		require.NoError(t, err)

		_, err = e.ClusterCentroids(ctx, points)
		assert.ErrorIs(t, err, vector.ErrDimension)
	})

	t.Run("invalid index", func(t *testing.T) {
		points := []vector.Point{{1}, {2}}
		cfg := smallConfig(2)
		cfg.Index.NumTrees = 0
		e, err := NewStrategy(IndexedLloyd, cfg)
		require.NoError(t, err)

		_, err = e.ClusterCentroids(ctx, points)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero clusters", func(c *Config) { c.NumClusters = 0 }},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"negative epsilon", func(c *Config) { c.Epsilon = -1 }},
		{"nan epsilon", func(c *Config) { c.Epsilon = float32(math.NaN()) }},
		{"negative subsample", func(c *Config) { c.SubsampleSize = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)

			_, err := NewStrategy(Lloyd, cfg)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	_, err := NewStrategy(Variant(42), DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRun(t *testing.T) {
	spec := sampling.DefaultClusterSpec()
	spec.MinValue, spec.MaxValue = -100, 100
	points, labels, _ := clusteredPoints(t, spec, 5)

	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			cfg := smallConfig(5)
			cfg.MaxIterations = 50
			cfg.Seed = 3
			cfg.Index.NumCandidateSplitDimensions = 2

			var stats []IterationStats
			e, err := NewStrategy(v, cfg, WithObserver(func(s IterationStats) { stats = append(stats, s) }))
			require.NoError(t, err)

			res, err := e.Run(context.Background(), points)
			require.NoError(t, err)

			require.Len(t, res.Centroids, 5)
			require.Len(t, res.Assignments, len(points))
			require.Len(t, res.Members, 5)
			assert.True(t, res.State.Terminal())
			assert.Len(t, stats, res.Iterations)
			for i, s := range stats {
				assert.Equal(t, i+1, s.Iteration)
			}

			total := uint64(0)
			for c, m := range res.Members {
				total += m.GetCardinality()
				it := m.Iterator()
				for it.HasNext() {
					assert.Equal(t, c, res.Assignments[it.Next()])
				}
			}
			assert.Equal(t, uint64(len(points)), total)

			agree := 0
			for i := range points {
				for j := i + 1; j < len(points); j++ {
					if labels[i] == labels[j] && res.Assignments[i] == res.Assignments[j] {
						agree++
					}
				}
			}
			assert.Positive(t, agree)
		})
	}
}

func TestRunSubsample(t *testing.T) {
	spec := sampling.DefaultClusterSpec()
	spec.MinSamples, spec.MaxSamples = 40, 40
	points, _, _ := clusteredPoints(t, spec, 12)

	cfg := smallConfig(5)
	cfg.SubsampleSize = 50

	e, err := NewStrategy(Lloyd, cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), points)
	require.NoError(t, err)
	assert.Len(t, res.Assignments, len(points))
	assert.Len(t, res.Centroids, 5)
}

func TestEmptyClusterKeepsCentroid(t *testing.T) {
	// Two identical points make one of the initial centroids a duplicate:
	// ties go to the lowest index, so the other never receives a point.
	points := []vector.Point{{1, 1}, {1, 1}}
	cfg := smallConfig(2)

	var empties []int
	e, err := NewStrategy(Lloyd, cfg, WithObserver(func(s IterationStats) { empties = append(empties, s.EmptyClusters) }))
	require.NoError(t, err)

	res, err := e.Run(context.Background(), points)
	require.NoError(t, err)

	for _, c := range res.Centroids {
		assert.Equal(t, vector.Point{1, 1}, c)
	}
	assert.Equal(t, Converged, res.State)
	require.NotEmpty(t, empties)
	assert.Equal(t, 1, empties[0])
	assert.Equal(t, uint64(2), res.Members[0].GetCardinality())
	assert.True(t, res.Members[1].IsEmpty())
}

func TestTermination(t *testing.T) {
	spec := sampling.DefaultClusterSpec()
	spec.Clusters = 10
	spec.MinStd, spec.MaxStd = 3, 3
	points, _, _ := clusteredPoints(t, spec, 4)

	t.Run("exhausted", func(t *testing.T) {
		cfg := smallConfig(10)
		cfg.MaxIterations = 1
		cfg.Epsilon = 0

		res, err := mustRun(t, Lloyd, cfg, points)
		require.NoError(t, err)
		assert.Equal(t, Exhausted, res.State)
		assert.Equal(t, 1, res.Iterations)
	})

	t.Run("converged", func(t *testing.T) {
		cfg := smallConfig(3)
		cfg.MaxIterations = 1000
		cfg.Epsilon = 1e-3

		res, err := mustRun(t, Lloyd, cfg, points)
		require.NoError(t, err)
		assert.Equal(t, Converged, res.State)
		assert.Less(t, res.MaxDisplacement, cfg.Epsilon)
		assert.Less(t, res.Iterations, 1000)
	})

	t.Run("epsilon applies to every variant", func(t *testing.T) {
		for _, v := range variants {
			cfg := smallConfig(8)
			cfg.MaxIterations = 50
			cfg.Epsilon = 1e9

			res, err := mustRun(t, v, cfg, points)
			require.NoError(t, err, v.String())
			assert.Equal(t, Converged, res.State, v.String())
			assert.Equal(t, 1, res.Iterations, v.String())
		}
	})

	t.Run("flat converges on stable assignments", func(t *testing.T) {
		cfg := smallConfig(3)
		cfg.MaxIterations = 1000

		res, err := mustRun(t, Flat, cfg, points)
		require.NoError(t, err)
		assert.Equal(t, Converged, res.State)
		assert.Less(t, res.Iterations, 1000)
	})
}

func mustRun(t *testing.T, v Variant, cfg Config, points []vector.Point) (*Result, error) {
	t.Helper()
	e, err := NewStrategy(v, cfg)
	require.NoError(t, err)
	return e.Run(context.Background(), points)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points := sampling.NewRNG(1).UniformVectors(1000, 2, 0, 1)
	ps := make([]vector.Point, len(points))
	for i, p := range points {
		ps[i] = p
	}

	for _, v := range variants {
		e, err := NewStrategy(v, smallConfig(10))
		require.NoError(t, err)

		_, err = e.ClusterCentroids(ctx, ps)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e, err := NewStrategy(Lloyd, smallConfig(2), WithLogger(logger))
	require.NoError(t, err)

	_, err = e.ClusterCentroids(context.Background(), []vector.Point{{0}, {1}, {10}, {11}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "clustering started")
	assert.Contains(t, out, "iteration completed")
	assert.Contains(t, out, "clustering finished")
	assert.Contains(t, out, "variant=lloyd")
}

func TestStateAndVariantStrings(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "converged", Converged.String())
	assert.Equal(t, "State(9)", State(9).String())

	for _, v := range variants {
		got, err := ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseVariant("opencv")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestIllegalTransitionPanics(t *testing.T) {
	m := machine{}
	assert.Panics(t, func() { m.to(Updating) })

	m.to(Assigning)
	m.to(Updating)
	m.to(Converged)
	assert.Panics(t, func() { m.to(Assigning) })
}
