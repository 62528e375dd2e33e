package kmeans

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/kforest/forest"
	"github.com/hupe1980/kforest/sampling"
	"github.com/hupe1980/kforest/tree"
	"github.com/hupe1980/kforest/vector"
)

// Strategy computes cluster centroids for a point set.
type Strategy interface {
	ClusterCentroids(ctx context.Context, points []vector.Point) ([]vector.Point, error)
}

// Variant selects a clustering algorithm.
type Variant int

const (
	Lloyd Variant = iota
	IndexedLloyd
	Flat
)

func (v Variant) String() string {
	switch v {
	case Lloyd:
		return "lloyd"
	case IndexedLloyd:
		return "indexed"
	case Flat:
		return "flat"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	for _, v := range []Variant{Lloyd, IndexedLloyd, Flat} {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return 0, &tree.ConfigError{Field: "variant", Value: s, Reason: "unknown variant"}
}

// IterationStats describes one completed iteration.
type IterationStats struct {
	Iteration       int
	MaxDisplacement float32
	Changed         int
	EmptyClusters   int
	Duration        time.Duration
}

// Observer is called after every completed iteration.
type Observer func(IterationStats)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Iterations are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver registers a per-iteration callback.
func WithObserver(fn Observer) Option {
	return func(e *Engine) { e.observer = fn }
}

// Engine runs one clustering variant with a fixed configuration.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	variant  Variant
	cfg      Config
	logger   *slog.Logger
	observer Observer
}

// NewStrategy returns an engine for the given variant. The configuration is
// validated here and again on every run.
func NewStrategy(variant Variant, cfg Config, opts ...Option) (*Engine, error) {
	switch variant {
	case Lloyd, IndexedLloyd, Flat:
	default:
		return nil, &tree.ConfigError{Field: "variant", Value: variant, Reason: "unknown variant"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{variant: variant, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Variant returns the algorithm the engine runs.
func (e *Engine) Variant() Variant { return e.variant }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Result is the outcome of Run.
type Result struct {
	// Centroids holds NumClusters points of the input dimensionality.
	Centroids []vector.Point

	// Assignments maps every input point to its centroid under the final
	// centroid set.
	Assignments []int

	// Members holds the input point indices of each cluster.
	Members []*roaring.Bitmap

	// Iterations is the number of completed assign/update rounds.
	Iterations int

	// State is Converged or Exhausted.
	State State

	// MaxDisplacement is the largest centroid move of the last iteration.
	MaxDisplacement float32
}

// ClusterCentroids returns the final centroid set. The input is never
// modified.
func (e *Engine) ClusterCentroids(ctx context.Context, points []vector.Point) ([]vector.Point, error) {
	r, err := e.cluster(ctx, points)
	if err != nil {
		return nil, err
	}
	return r.Centroids, nil
}

// Run clusters points and assigns every input point to the final centroids.
func (e *Engine) Run(ctx context.Context, points []vector.Point) (*Result, error) {
	r, err := e.cluster(ctx, points)
	if err != nil {
		return nil, err
	}

	a, err := e.assigner(r.Centroids, e.cfg.Seed)
	if err != nil {
		return nil, err
	}

	r.Assignments = make([]int, len(points))
	for i := range r.Assignments {
		r.Assignments[i] = -1
	}
	if _, err := assignAll(ctx, points, a, r.Assignments, e.cfg.workers()); err != nil {
		return nil, err
	}

	r.Members = make([]*roaring.Bitmap, len(r.Centroids))
	for c := range r.Members {
		r.Members[c] = roaring.New()
	}
	for i, c := range r.Assignments {
		r.Members[c].Add(uint32(i))
	}

	return r, nil
}

// prepare validates the run and returns the training set, its
// dimensionality, and the seeded generator positioned after subsampling.
func (e *Engine) prepare(points []vector.Point) ([]vector.Point, int, *sampling.RNG, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, 0, nil, err
	}
	if len(points) == 0 {
		return nil, 0, nil, ErrEmptyInput
	}

	dim, err := vector.CheckDimensions(points)
	if err != nil {
		return nil, 0, nil, err
	}

	if e.cfg.NumClusters > len(points) {
		return nil, 0, nil, &TooFewPointsError{Clusters: e.cfg.NumClusters, Points: len(points)}
	}

	if e.variant == IndexedLloyd {
		if err := e.cfg.forestConfig(0).Validate(); err != nil {
			return nil, 0, nil, err
		}
		if k := e.cfg.Index.NumCandidateSplitDimensions; k > dim {
			return nil, 0, nil, fmt.Errorf("%d candidate split dimensions for %d-dimensional points: %w",
				k, dim, &vector.ErrDimensionMismatch{Expected: dim, Actual: k})
		}
	}

	rng := sampling.NewRNG(e.cfg.Seed)

	train := points
	if n := e.cfg.SubsampleSize; n > 0 && n < len(points) {
		if e.cfg.NumClusters > n {
			return nil, 0, nil, &TooFewPointsError{Clusters: e.cfg.NumClusters, Points: n}
		}
		idx, err := rng.IndicesWithoutReplacement(n, len(points))
		if err != nil {
			return nil, 0, nil, err
		}
		train = make([]vector.Point, n)
		for i, j := range idx {
			train[i] = points[j]
		}
	}

	return train, dim, rng, nil
}

// initialCentroids copies NumClusters distinct seeded draws from points.
func (e *Engine) initialCentroids(rng *sampling.RNG, points []vector.Point) ([]vector.Point, error) {
	idx, err := rng.IndicesWithoutReplacement(e.cfg.NumClusters, len(points))
	if err != nil {
		return nil, err
	}

	centroids := make([]vector.Point, len(idx))
	for i, j := range idx {
		centroids[i] = slices.Clone(points[j])
	}
	return centroids, nil
}

func (e *Engine) assigner(centroids []vector.Point, seed int64) (assigner, error) {
	if e.variant != IndexedLloyd {
		return scan(centroids), nil
	}

	ix, err := forest.New(centroids, forest.WithConfig(e.cfg.forestConfig(seed)))
	if err != nil {
		return nil, fmt.Errorf("build centroid index: %w", err)
	}
	return indexed{ix: ix}, nil
}

func (e *Engine) cluster(ctx context.Context, points []vector.Point) (*Result, error) {
	train, dim, rng, err := e.prepare(points)
	if err != nil {
		return nil, err
	}

	centroids, err := e.initialCentroids(rng, train)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	e.log(ctx, slog.LevelDebug, "clustering started",
		slog.String("variant", e.variant.String()),
		slog.Int("points", len(train)),
		slog.Int("dimension", dim),
		slog.Int("clusters", e.cfg.NumClusters))

	var r *Result
	if e.variant == Flat {
		r, err = e.flat(ctx, train, dim, centroids)
	} else {
		r, err = e.lloyd(ctx, train, dim, centroids, rng)
	}
	if err != nil {
		return nil, err
	}

	e.log(ctx, slog.LevelInfo, "clustering finished",
		slog.String("variant", e.variant.String()),
		slog.String("state", r.State.String()),
		slog.Int("iterations", r.Iterations),
		slog.Float64("max_displacement", float64(r.MaxDisplacement)),
		slog.Duration("duration", time.Since(start)))

	return r, nil
}

func (e *Engine) lloyd(ctx context.Context, points []vector.Point, dim int, centroids []vector.Point, rng *sampling.RNG) (*Result, error) {
	m := machine{}
	acc := newAccumulator(len(centroids), dim)

	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = -1
	}

	prev := float32(math.Inf(1))
	iter := 0

	for {
		if iter > 0 {
			switch {
			case prev < e.cfg.Epsilon:
				m.to(Converged)
			case iter >= e.cfg.MaxIterations:
				m.to(Exhausted)
			}
			if m.state.Terminal() {
				break
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		started := time.Now()
		m.to(Assigning)

		a, err := e.assigner(centroids, rng.Seeds(1)[0])
		if err != nil {
			return nil, err
		}

		changed, err := assignAll(ctx, points, a, assignments, e.cfg.workers())
		if err != nil {
			return nil, err
		}

		m.to(Updating)
		acc.reset()
		for i, c := range assignments {
			acc.add(c, points[i])
		}
		disp, empty := acc.apply(centroids)

		iter++
		prev = disp
		e.observe(ctx, IterationStats{
			Iteration:       iter,
			MaxDisplacement: disp,
			Changed:         changed,
			EmptyClusters:   empty,
			Duration:        time.Since(started),
		})
	}

	return &Result{
		Centroids:       centroids,
		Iterations:      iter,
		State:           m.state,
		MaxDisplacement: prev,
	}, nil
}

func (e *Engine) observe(ctx context.Context, s IterationStats) {
	e.log(ctx, slog.LevelDebug, "iteration completed",
		slog.Int("iteration", s.Iteration),
		slog.Float64("max_displacement", float64(s.MaxDisplacement)),
		slog.Int("changed", s.Changed),
		slog.Int("empty_clusters", s.EmptyClusters))

	if e.observer != nil {
		e.observer(s)
	}
}

func (e *Engine) log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if e.logger == nil {
		return
	}
	e.logger.LogAttrs(ctx, level, msg, attrs...)
}
