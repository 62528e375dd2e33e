package kmeans

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/kforest/forest"
	"github.com/hupe1980/kforest/internal/math32"
	"github.com/hupe1980/kforest/vector"
)

// minChunk keeps per-goroutine work large enough to amortize scheduling.
const minChunk = 256

// assigner maps a point to the index of a centroid.
type assigner interface {
	nearest(p vector.Point) (int, error)
}

// scan is an exhaustive nearest-centroid lookup. Ties go to the lowest
// index.
type scan []vector.Point

func (s scan) nearest(p vector.Point) (int, error) {
	best, bestDist := 0, math32.SquaredL2(p, s[0])
	for i := 1; i < len(s); i++ {
		if d := math32.SquaredL2(p, s[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// indexed answers lookups from a forest built over the centroids.
type indexed struct {
	ix *forest.Index
}

func (x indexed) nearest(p vector.Point) (int, error) {
	return x.ix.ApproximateNearestNeighbor(p)
}

// parallelFor splits [0, n) into chunks and runs fn on them with at most
// workers goroutines. It returns once every chunk finished.
func parallelFor(ctx context.Context, n, workers int, fn func(lo, hi int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	chunk := max(minChunk, (n+workers-1)/workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(lo, hi)
		})
	}

	return g.Wait()
}

// assignAll writes the nearest centroid of every point into assignments and
// returns how many entries changed.
func assignAll(ctx context.Context, points []vector.Point, a assigner, assignments []int, workers int) (int, error) {
	changed := make([]int, (len(points)+minChunk-1)/minChunk+1)

	err := parallelFor(ctx, len(points), workers, func(lo, hi int) error {
		n := 0
		for i := lo; i < hi; i++ {
			c, err := a.nearest(points[i])
			if err != nil {
				return err
			}
			if assignments[i] != c {
				assignments[i] = c
				n++
			}
		}
		changed[lo/minChunk] = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, n := range changed {
		total += n
	}
	return total, nil
}
