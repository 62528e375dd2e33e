package forest

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/kforest/sampling"
	"github.com/hupe1980/kforest/tree"
	"github.com/hupe1980/kforest/vector"
)

// ErrInvalidConfiguration is returned for out-of-range parameters.
var ErrInvalidConfiguration = tree.ErrInvalidConfiguration

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// Index answers approximate nearest-neighbor queries over a point set.
//
// The index borrows the point set: it keeps references, not copies, so the
// caller must not modify the points while the index is in use.
// An Index is safe for concurrent queries.
type Index struct {
	cfg    Config
	points []vector.Point
	trees  []*tree.Tree
	dim    int
}

// New builds an index of cfg.NumTrees trees over points.
func New(points []vector.Point, opts ...Option) (*Index, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dim, err := vector.CheckDimensions(points)
	if err != nil {
		return nil, err
	}

	seeds := sampling.NewRNG(cfg.Seed).Seeds(cfg.NumTrees)
	trees := make([]*tree.Tree, cfg.NumTrees)

	var g errgroup.Group
	g.SetLimit(cfg.workers())

	for i := range trees {
		g.Go(func() error {
			t, err := tree.Build(points, cfg.NumCandidateSplitDimensions, seeds[i])
			if err != nil {
				return fmt.Errorf("build tree %d: %w", i, err)
			}
			trees[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Index{
		cfg:    cfg,
		points: points,
		trees:  trees,
		dim:    dim,
	}, nil
}

// Config returns the configuration the index was built with.
func (ix *Index) Config() Config { return ix.cfg }

// Dim returns the dimensionality of the indexed points.
func (ix *Index) Dim() int { return ix.dim }

// Len returns the number of indexed points.
func (ix *Index) Len() int { return len(ix.points) }

// Trees returns the trees of the forest.
func (ix *Index) Trees() []*tree.Tree { return ix.trees }

// Point returns the indexed point with the given index.
func (ix *Index) Point(i int) vector.Point { return ix.points[i] }

// Stats summarizes the shape of the forest.
type Stats struct {
	NumTrees  int
	NumPoints int
	NumNodes  int
	MaxDepth  int
}

// Stats returns structural statistics.
func (ix *Index) Stats() Stats {
	s := Stats{NumTrees: len(ix.trees), NumPoints: len(ix.points)}
	for _, t := range ix.trees {
		s.NumNodes += t.Len()
		s.MaxDepth = max(s.MaxDepth, t.Depth())
	}
	return s
}
