// Package forest implements approximate nearest-neighbor search over a
// forest of randomized split trees.
//
// All trees index the same point set. A query runs a best-bin-first
// traversal across every tree at once: one min-priority queue holds
// unexplored subtrees of all trees ordered by a lower bound on the squared
// distance from the query to anything inside them. Each pop descends to a
// leaf, queueing the branches it passes. SearchLimit caps the number of pops
// and trades recall for latency.
//
// The bound is the sum, over dimensions, of the largest squared gap between
// the query and an interval known to contain every point of the subtree.
// It never overestimates the true distance and never decreases while
// descending.
//
//	ix, err := forest.New(points, forest.WithNumTrees(8), forest.WithSeed(1))
//	nearest, err := ix.ApproximateNearestNeighbor(query)
package forest
