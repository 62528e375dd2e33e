package forest

import (
	"runtime"

	"github.com/hupe1980/kforest/tree"
)

// Config holds the accuracy/speed knobs of an Index.
type Config struct {
	// NumTrees is the number of independently randomized trees.
	NumTrees int

	// SearchLimit is the maximum number of queue pops per query.
	SearchLimit int

	// NumCandidateSplitDimensions is how many of the highest-variance
	// dimensions a split is drawn from.
	NumCandidateSplitDimensions int

	// Seed makes the whole forest reproducible.
	Seed int64

	// Workers bounds parallel tree construction. Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the defaults: 10 trees, 100 probes, 5 candidate
// split dimensions.
func DefaultConfig() Config {
	return Config{
		NumTrees:                    10,
		SearchLimit:                 100,
		NumCandidateSplitDimensions: 5,
	}
}

// Validate checks the structural parameters that do not depend on data.
func (c Config) Validate() error {
	if c.NumTrees <= 0 {
		return &tree.ConfigError{Field: "numTrees", Value: c.NumTrees, Reason: "must be positive"}
	}
	if c.SearchLimit <= 0 {
		return &tree.ConfigError{Field: "searchLimit", Value: c.SearchLimit, Reason: "must be positive"}
	}
	if c.NumCandidateSplitDimensions <= 0 {
		return &tree.ConfigError{Field: "numCandidateSplitDimensions", Value: c.NumCandidateSplitDimensions, Reason: "must be positive"}
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

// Option configures an Index.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithNumTrees sets the number of trees.
func WithNumTrees(n int) Option {
	return func(c *Config) { c.NumTrees = n }
}

// WithSearchLimit sets the maximum number of queue pops per query.
func WithSearchLimit(n int) Option {
	return func(c *Config) { c.SearchLimit = n }
}

// WithNumCandidateSplitDimensions sets how many top-variance dimensions a
// split dimension is drawn from.
func WithNumCandidateSplitDimensions(n int) Option {
	return func(c *Config) { c.NumCandidateSplitDimensions = n }
}

// WithSeed sets the seed from which every tree's seed is derived.
func WithSeed(seed int64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithWorkers bounds parallel tree construction.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}
