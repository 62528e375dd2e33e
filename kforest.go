package kforest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/kforest/blobstore"
	"github.com/hupe1980/kforest/codebook"
	"github.com/hupe1980/kforest/forest"
	"github.com/hupe1980/kforest/kmeans"
	"github.com/hupe1980/kforest/vector"
)

// Clusterer runs k-means with a fixed configuration. It is safe for
// concurrent use.
type Clusterer struct {
	engine  *kmeans.Engine
	metrics MetricsCollector
	logger  *Logger
}

// New creates a Clusterer. The configuration is validated here.
func New(opts ...Option) (*Clusterer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Clusterer{
		metrics: o.metricsCollector,
		logger:  o.logger.WithVariant(o.variant.String()),
	}

	engine, err := kmeans.NewStrategy(o.variant, o.config,
		kmeans.WithLogger(c.logger.Logger),
		kmeans.WithObserver(c.observe),
	)
	if err != nil {
		return nil, translateError(err)
	}
	c.engine = engine

	return c, nil
}

// Variant returns the configured algorithm.
func (c *Clusterer) Variant() kmeans.Variant { return c.engine.Variant() }

// Config returns the effective clustering configuration.
func (c *Clusterer) Config() kmeans.Config { return c.engine.Config() }

func (c *Clusterer) observe(s kmeans.IterationStats) {
	c.metrics.RecordIteration(s.MaxDisplacement, s.Changed, s.Duration)
}

// ClusterCentroids returns NumClusters centroids for points. The input is
// never modified.
func (c *Clusterer) ClusterCentroids(ctx context.Context, points []vector.Point) ([]vector.Point, error) {
	r, err := c.run(ctx, points, false)
	if err != nil {
		return nil, err
	}
	return r.Centroids, nil
}

// Run clusters points and additionally reports the cluster of every input
// point.
func (c *Clusterer) Run(ctx context.Context, points []vector.Point) (*kmeans.Result, error) {
	return c.run(ctx, points, true)
}

func (c *Clusterer) run(ctx context.Context, points []vector.Point, assign bool) (*kmeans.Result, error) {
	start := time.Now()

	var (
		r   *kmeans.Result
		err error
	)
	if assign {
		r, err = c.engine.Run(ctx, points)
	} else {
		var centroids []vector.Point
		centroids, err = c.engine.ClusterCentroids(ctx, points)
		r = &kmeans.Result{Centroids: centroids}
	}

	elapsed := time.Since(start)
	iterations := 0
	if err == nil {
		iterations = r.Iterations
	}

	variant := c.engine.Variant().String()
	c.metrics.RecordClustering(variant, iterations, elapsed, err)
	c.logger.LogClustering(ctx, variant, len(points), iterations, elapsed, err)

	if err != nil {
		return nil, translateError(err)
	}
	return r, nil
}

// Index is a forest index that reports queries to the configured
// metrics collector.
type Index struct {
	*forest.Index
	metrics MetricsCollector
}

// NewIndex builds a random-projection forest over points using the index,
// seed and worker options. Clustering options are ignored.
func NewIndex(ctx context.Context, points []vector.Point, opts ...Option) (*Index, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	ix, err := forest.New(points,
		forest.WithNumTrees(o.config.Index.NumTrees),
		forest.WithSearchLimit(o.config.Index.SearchLimit),
		forest.WithNumCandidateSplitDimensions(o.config.Index.NumCandidateSplitDimensions),
		forest.WithSeed(o.config.Seed),
		forest.WithWorkers(o.config.Workers),
	)
	elapsed := time.Since(start)

	o.metricsCollector.RecordIndexBuild(len(points), elapsed, err)
	o.logger.LogIndexBuild(ctx, len(points), o.config.Index.NumTrees, elapsed, err)

	if err != nil {
		return nil, translateError(err)
	}
	return &Index{Index: ix, metrics: o.metricsCollector}, nil
}

// ApproximateNearestNeighbor returns the position of the indexed point
// closest to query among those the search visits.
func (ix *Index) ApproximateNearestNeighbor(query vector.Point) (int, error) {
	start := time.Now()
	i, err := ix.Index.ApproximateNearestNeighbor(query)
	ix.metrics.RecordQuery(1, time.Since(start), err)
	return i, translateError(err)
}

// Search returns up to k approximate nearest neighbours of query, closest
// first.
func (ix *Index) Search(query vector.Point, k int) ([]forest.Neighbor, error) {
	start := time.Now()
	hits, err := ix.Index.Search(query, k)
	ix.metrics.RecordQuery(k, time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}
	return hits, nil
}

// SaveCodebook encodes centroids and stores them under name.
func SaveCodebook(ctx context.Context, store blobstore.BlobStore, name string, centroids []vector.Point, compression codebook.Compression) error {
	var buf bytes.Buffer
	if err := codebook.Encode(&buf, centroids, compression); err != nil {
		return translateError(fmt.Errorf("encode codebook %s: %w", name, err))
	}
	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("store codebook %s: %w", name, err)
	}
	return nil
}

// LoadCodebook reads the centroids stored under name.
func LoadCodebook(ctx context.Context, store blobstore.BlobStore, name string) ([]vector.Point, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("load codebook %s: %w", name, err)
	}
	centroids, err := codebook.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode codebook %s: %w", name, err)
	}
	return centroids, nil
}
