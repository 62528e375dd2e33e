package vector

import (
	"math"

	"github.com/hupe1980/kforest/internal/math32"
)

// Point is a feature point: an ordered, fixed-length sequence of float32.
type Point = []float32

// Difference returns the elementwise difference a-b.
func Difference(a, b Point) (Point, error) {
	if len(a) != len(b) {
		return nil, mismatch(len(a), len(b))
	}

	out := make(Point, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}

	return out, nil
}

// Dot returns the dot product of a and b.
func Dot(a, b Point) (float32, error) {
	if len(a) != len(b) {
		return 0, mismatch(len(a), len(b))
	}
	return math32.Dot(a, b), nil
}

// SquaredL2Norm returns the squared Euclidean norm of v.
func SquaredL2Norm(v Point) float32 {
	return math32.Dot(v, v)
}

// L2Norm returns the Euclidean norm of v.
func L2Norm(v Point) float32 {
	return float32(math.Sqrt(float64(SquaredL2Norm(v))))
}

// SquaredL2 returns the squared Euclidean distance between a and b.
func SquaredL2(a, b Point) (float32, error) {
	if len(a) != len(b) {
		return 0, mismatch(len(a), len(b))
	}
	return math32.SquaredL2(a, b), nil
}

// L2 returns the Euclidean distance between a and b.
func L2(a, b Point) (float32, error) {
	d, err := SquaredL2(a, b)
	if err != nil {
		return 0, err
	}
	return float32(math.Sqrt(float64(d))), nil
}

// Centroid returns the elementwise mean of points, accumulated in float64.
func Centroid(points []Point) (Point, error) {
	sum, err := sum64(points)
	if err != nil {
		return nil, err
	}

	inv := 1 / float64(len(points))
	out := make(Point, len(sum))
	for i, s := range sum {
		out[i] = float32(s * inv)
	}

	return out, nil
}

// Variance returns the elementwise population variance of points about
// their centroid.
func Variance(points []Point) (Point, error) {
	sum, err := sum64(points)
	if err != nil {
		return nil, err
	}

	n := float64(len(points))
	mean := make([]float64, len(sum))
	for i, s := range sum {
		mean[i] = s / n
	}

	acc := make([]float64, len(sum))
	for _, p := range points {
		for i, v := range p {
			d := float64(v) - mean[i]
			acc[i] += d * d
		}
	}

	out := make(Point, len(acc))
	for i, a := range acc {
		out[i] = float32(a / n)
	}

	return out, nil
}

// CheckDimensions verifies that points is non-empty and that every point
// has the length of the first one. It returns that common length.
func CheckDimensions(points []Point) (int, error) {
	if len(points) == 0 {
		return 0, ErrEmptyInput
	}

	dim := len(points[0])
	for _, p := range points[1:] {
		if len(p) != dim {
			return 0, mismatch(dim, len(p))
		}
	}

	return dim, nil
}

// NearestNeighbor returns the index of the point closest to query under the
// L2 norm. Ties resolve to the lowest index.
func NearestNeighbor(query Point, points []Point) (int, error) {
	if len(points) == 0 {
		return -1, ErrEmptyInput
	}

	best := -1
	bestDist := float32(math.MaxFloat32)
	for i, p := range points {
		if len(p) != len(query) {
			return -1, mismatch(len(query), len(p))
		}
		if d := math32.SquaredL2(query, p); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}

	return best, nil
}

// Flatten concatenates several point sets into one, preserving order.
func Flatten(sets [][]Point) []Point {
	n := 0
	for _, s := range sets {
		n += len(s)
	}

	out := make([]Point, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}

	return out
}

func sum64(points []Point) ([]float64, error) {
	dim, err := CheckDimensions(points)
	if err != nil {
		return nil, err
	}

	acc := make([]float64, dim)
	for _, p := range points {
		math32.AccumulateFloat64(acc, p)
	}

	return acc, nil
}
