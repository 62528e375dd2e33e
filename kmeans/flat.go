package kmeans

import (
	"context"
	"math"
	"time"

	"github.com/hupe1980/kforest/internal/math32"
	"github.com/hupe1980/kforest/vector"
)

// flat runs Lloyd's algorithm over one contiguous copy of the points. It
// stops like lloyd does, and also once an assignment pass changes nothing.
func (e *Engine) flat(ctx context.Context, points []vector.Point, dim int, init []vector.Point) (*Result, error) {
	n, k := len(points), len(init)

	vectors := make([]float32, n*dim)
	for i, p := range points {
		copy(vectors[i*dim:], p)
	}

	centroids := make([]float32, k*dim)
	for c, p := range init {
		copy(centroids[c*dim:], p)
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	changedPer := make([]int, (n+minChunk-1)/minChunk+1)
	sums := make([]float64, k*dim)
	counts := make([]int, k)

	m := machine{}
	var disp float32
	iter := 0

	for {
		if iter > 0 && disp < e.cfg.Epsilon {
			m.to(Converged)
			break
		}
		if iter >= e.cfg.MaxIterations {
			m.to(Exhausted)
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		started := time.Now()
		m.to(Assigning)

		// Assignment step
		clear(changedPer)
		err := parallelFor(ctx, n, e.cfg.workers(), func(lo, hi int) error {
			changed := 0
			for i := lo; i < hi; i++ {
				vec := vectors[i*dim : (i+1)*dim]
				best, minDist := 0, float32(math.MaxFloat32)
				for j := 0; j < k; j++ {
					if d := math32.SquaredL2(vec, centroids[j*dim:(j+1)*dim]); d < minDist {
						best, minDist = j, d
					}
				}
				if assignments[i] != best {
					assignments[i] = best
					changed++
				}
			}
			changedPer[lo/minChunk] = changed
			return nil
		})
		if err != nil {
			return nil, err
		}

		changed := 0
		for _, c := range changedPer {
			changed += c
		}

		m.to(Updating)
		if changed == 0 {
			m.to(Converged)
			break
		}

		// Update step
		clear(sums)
		clear(counts)
		for i, c := range assignments {
			math32.AccumulateFloat64(sums[c*dim:(c+1)*dim], vectors[i*dim:(i+1)*dim])
			counts[c]++
		}

		disp = 0
		empty := 0
		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				empty++
				continue
			}
			inv := 1 / float64(counts[j])
			var moved float64
			for d := 0; d < dim; d++ {
				v := float32(sums[j*dim+d] * inv)
				diff := float64(v - centroids[j*dim+d])
				moved += diff * diff
				centroids[j*dim+d] = v
			}
			disp = max(disp, float32(math.Sqrt(moved)))
		}

		iter++
		e.observe(ctx, IterationStats{
			Iteration:       iter,
			MaxDisplacement: disp,
			Changed:         changed,
			EmptyClusters:   empty,
			Duration:        time.Since(started),
		})
	}

	out := make([]vector.Point, k)
	for c := range out {
		out[c] = vector.Point(centroids[c*dim : (c+1)*dim : (c+1)*dim])
	}

	return &Result{
		Centroids:       out,
		Iterations:      iter,
		State:           m.state,
		MaxDisplacement: disp,
	}, nil
}
