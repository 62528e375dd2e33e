package sampling

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// ErrSampleTooLarge is returned when more distinct indices are requested
// than the population holds.
var ErrSampleTooLarge = errors.New("sample larger than population")

// RNG encapsulates a seeded random number generator.
// It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // reproducibility, not security
		seed: seed,
	}
}

// Reset rewinds the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Seeds derives n child seeds. Generators built from them are independent
// of each other but the whole family is reproducible from this RNG's seed.
func (r *RNG) Seeds(n int) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = r.rand.Int63()
	}
	return seeds
}

// UniformVector returns a vector of size values drawn uniformly from [minVal, maxVal).
func (r *RNG) UniformVector(size int, minVal, maxVal float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uniformLocked(make([]float32, size), minVal, maxVal)
}

// UniformVectors returns num vectors of the given size drawn uniformly from
// [minVal, maxVal). Uses a single backing array.
func (r *RNG) UniformVectors(num, size int, minVal, maxVal float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*size)
	vectors := make([][]float32, num)
	for i := range num {
		vectors[i] = r.uniformLocked(data[i*size:(i+1)*size:(i+1)*size], minVal, maxVal)
	}
	return vectors
}

func (r *RNG) uniformLocked(dst []float32, minVal, maxVal float32) []float32 {
	span := float64(maxVal - minVal)
	for i := range dst {
		dst[i] = minVal + float32(r.rand.Float64()*span)
	}
	return dst
}

// NormalVector samples from a multivariate normal distribution with
// diagonal covariance: component i has mean mean[i] and standard
// deviation std[i].
func (r *RNG) NormalVector(mean, std []float32) ([]float32, error) {
	if len(mean) != len(std) {
		return nil, fmt.Errorf("normal vector: mean has %d components, std has %d", len(mean), len(std))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.normalLocked(mean, std), nil
}

func (r *RNG) normalLocked(mean, std []float32) []float32 {
	out := make([]float32, len(mean))
	for i := range out {
		out[i] = mean[i] + float32(r.rand.NormFloat64())*std[i]
	}
	return out
}

// IndicesWithoutReplacement draws k distinct indices from [0, n) uniformly.
// The order of the result is the draw order.
func (r *RNG) IndicesWithoutReplacement(k, n int) ([]int, error) {
	if k < 0 || n < 0 {
		return nil, fmt.Errorf("indices without replacement: negative argument (k=%d, n=%d)", k, n)
	}
	if k > n {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrSampleTooLarge, k, n)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Partial Fisher-Yates over a sparse permutation keeps memory at O(k).
	swapped := make(map[int]int, k)
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}

	out := make([]int, k)
	for i := range k {
		j := i + r.rand.Intn(n-i)
		vi, vj := at(i), at(j)
		swapped[j] = vi
		swapped[i] = vj
		out[i] = vj
	}

	return out, nil
}

// Shuffle permutes points in place.
func (r *RNG) Shuffle(points [][]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})
}
