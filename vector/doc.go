// Package vector provides dimension-checked arithmetic over feature points.
//
// A feature point is a fixed-length []float32. Every operation that combines
// two points, or reduces a set of points, verifies that all lengths agree and
// reports a *ErrDimensionMismatch otherwise. Reductions over sets
// (Centroid, Variance) accumulate in float64 and cast back to float32.
//
//	c, err := vector.Centroid(points)
//	d, err := vector.SquaredL2(a, b)
//	nn, err := vector.NearestNeighbor(query, points)
package vector
