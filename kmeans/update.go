package kmeans

import (
	"math"

	"github.com/hupe1980/kforest/internal/math32"
	"github.com/hupe1980/kforest/vector"
)

// accumulator collects per-cluster sums in float64.
type accumulator struct {
	dim    int
	sums   []float64
	counts []int
}

func newAccumulator(k, dim int) *accumulator {
	return &accumulator{
		dim:    dim,
		sums:   make([]float64, k*dim),
		counts: make([]int, k),
	}
}

func (a *accumulator) reset() {
	clear(a.sums)
	clear(a.counts)
}

func (a *accumulator) add(c int, p vector.Point) {
	math32.AccumulateFloat64(a.sums[c*a.dim:(c+1)*a.dim], p)
	a.counts[c]++
}

// apply moves every non-empty centroid to the mean of its points and
// returns the largest Euclidean displacement and the number of empty
// clusters. Empty clusters keep their centroid.
func (a *accumulator) apply(centroids []vector.Point) (maxDisplacement float32, empty int) {
	for c, centroid := range centroids {
		if a.counts[c] == 0 {
			empty++
			continue
		}

		inv := 1 / float64(a.counts[c])
		sum := a.sums[c*a.dim : (c+1)*a.dim]

		var moved float64
		for d, s := range sum {
			m := float32(s * inv)
			diff := float64(m - centroid[d])
			moved += diff * diff
			centroid[d] = m
		}

		maxDisplacement = max(maxDisplacement, float32(math.Sqrt(moved)))
	}
	return maxDisplacement, empty
}
