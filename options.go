package kforest

import (
	"log/slog"

	"github.com/hupe1980/kforest/kmeans"
)

type options struct {
	variant          kmeans.Variant
	config           kmeans.Config
	metricsCollector MetricsCollector
	logger           *Logger
}

func defaultOptions() options {
	return options{
		variant:          kmeans.Lloyd,
		config:           kmeans.DefaultConfig(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// Option configures a Clusterer or an Index.
type Option func(*options)

// WithVariant selects the clustering algorithm. The default is
// kmeans.Lloyd; the index options only take effect for kmeans.IndexedLloyd.
func WithVariant(v kmeans.Variant) Option {
	return func(o *options) {
		o.variant = v
	}
}

// WithNumClusters sets the number of centroids to produce.
func WithNumClusters(n int) Option {
	return func(o *options) {
		o.config.NumClusters = n
	}
}

// WithMaxIterations caps the number of assign/update rounds.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.config.MaxIterations = n
	}
}

// WithEpsilon sets the convergence threshold on the largest centroid
// displacement. Zero runs until the iteration cap.
func WithEpsilon(eps float32) Option {
	return func(o *options) {
		o.config.Epsilon = eps
	}
}

// WithSeed fixes all randomness. Equal seeds give equal results.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.config.Seed = seed
	}
}

// WithSubsampleSize clusters a uniformly drawn subset of n points.
// Zero uses all points.
func WithSubsampleSize(n int) Option {
	return func(o *options) {
		o.config.SubsampleSize = n
	}
}

// WithWorkers bounds the parallelism of assignment and tree builds.
// Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.config.Workers = n
	}
}

// WithIndex configures the random-projection forest.
//
// Example:
//
//	c, _ := kforest.New(
//	    kforest.WithNumClusters(1000),
//	    kforest.WithIndex(8, 64, 5),
//	)
func WithIndex(numTrees, searchLimit, numCandidateSplitDimensions int) Option {
	return func(o *options) {
		o.config.Index = kmeans.IndexConfig{
			NumTrees:                    numTrees,
			SearchLimit:                 searchLimit,
			NumCandidateSplitDimensions: numCandidateSplitDimensions,
		}
	}
}

// WithMetricsCollector configures metrics collection for observability.
// If nil is passed, metrics are disabled.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// If nil is passed, logging is disabled.
//
// Example:
//
//	logger := kforest.NewJSONLogger(slog.LevelInfo)
//	c, _ := kforest.New(kforest.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}
