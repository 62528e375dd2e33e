// Package tree builds randomized binary space-partition trees over a point set.
//
// A Tree stores its nodes in a flat arena addressed by NodeID. Leaves refer
// to points by their index in the caller-owned point set; the tree never
// copies point data, so the point set must outlive the tree.
//
// Each inner node splits its points at the median of one dimension. The
// dimension is drawn uniformly from the numCandidateSplitDimensions
// dimensions of highest variance, which makes trees built with different
// seeds disagree and is what gives a forest its recall.
package tree
