// Package sampling provides seeded random sampling of vectors and indices.
//
// All randomness flows through an RNG built from a single int64 seed, so
// centroid initialization, forest construction and generated test data are
// reproducible.
//
//	rng := sampling.NewRNG(seed)
//	idx, _ := rng.IndicesWithoutReplacement(k, len(points))
//	points, labels := rng.ClusteredPoints(sampling.DefaultClusterSpec())
package sampling
