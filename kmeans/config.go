package kmeans

import (
	"math"
	"runtime"

	"github.com/hupe1980/kforest/forest"
	"github.com/hupe1980/kforest/tree"
)

// Config controls a clustering run.
type Config struct {
	// NumClusters is the number of centroids to produce.
	NumClusters int

	// MaxIterations caps the number of assign/update rounds.
	MaxIterations int

	// Epsilon is the convergence threshold on the largest centroid
	// displacement. Zero disables displacement-based convergence.
	Epsilon float32

	// Seed drives subsampling, initialization and index construction.
	Seed int64

	// SubsampleSize, when positive and smaller than the input, clusters a
	// uniformly drawn subset of that many points.
	SubsampleSize int

	// Workers bounds parallel assignment. Zero means GOMAXPROCS.
	Workers int

	// Index configures the per-iteration forest of IndexedLloyd.
	Index IndexConfig
}

// IndexConfig holds the forest knobs used by IndexedLloyd.
type IndexConfig struct {
	NumTrees                    int
	SearchLimit                 int
	NumCandidateSplitDimensions int
}

// DefaultConfig returns 100 clusters, 25 iterations and epsilon 1e-3, with
// the forest defaults for the index.
func DefaultConfig() Config {
	fc := forest.DefaultConfig()
	return Config{
		NumClusters:   100,
		MaxIterations: 25,
		Epsilon:       1e-3,
		Index: IndexConfig{
			NumTrees:                    fc.NumTrees,
			SearchLimit:                 fc.SearchLimit,
			NumCandidateSplitDimensions: fc.NumCandidateSplitDimensions,
		},
	}
}

// Validate checks the parameters every variant needs.
func (c Config) Validate() error {
	if c.NumClusters <= 0 {
		return &tree.ConfigError{Field: "numClusters", Value: c.NumClusters, Reason: "must be positive"}
	}
	if c.MaxIterations <= 0 {
		return &tree.ConfigError{Field: "maxIterations", Value: c.MaxIterations, Reason: "must be positive"}
	}
	if c.Epsilon < 0 || math.IsNaN(float64(c.Epsilon)) {
		return &tree.ConfigError{Field: "epsilon", Value: c.Epsilon, Reason: "must be non-negative"}
	}
	if c.SubsampleSize < 0 {
		return &tree.ConfigError{Field: "subsampleSize", Value: c.SubsampleSize, Reason: "must not be negative"}
	}
	if c.Workers < 0 {
		return &tree.ConfigError{Field: "workers", Value: c.Workers, Reason: "must not be negative"}
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// forestConfig returns the configuration of the index built in one
// iteration.
func (c Config) forestConfig(seed int64) forest.Config {
	return forest.Config{
		NumTrees:                    c.Index.NumTrees,
		SearchLimit:                 c.Index.SearchLimit,
		NumCandidateSplitDimensions: c.Index.NumCandidateSplitDimensions,
		Seed:                        seed,
		Workers:                     c.Workers,
	}
}
