package tree

import "math"

// NodeID addresses a node in a tree's arena.
type NodeID = uint32

// NoNode marks an absent child.
const NoNode NodeID = math.MaxUint32

// Node is an immutable node of a split tree.
//
// A leaf holds exactly one point reference. An inner node holds two children,
// the split dimension and split value, and the extent of its points along the
// split dimension: Min <= Split <= Max.
type Node struct {
	Left  NodeID
	Right NodeID

	// Point is the index of the leaf's point in the indexed point set.
	Point uint32

	// Dim is the split dimension of an inner node.
	Dim uint32

	// Split is the smallest value of the right child along Dim.
	Split float32

	// Min and Max are the extremes of all contained points along Dim.
	Min float32
	Max float32
}

// IsLeaf reports whether n is a leaf.
func (n Node) IsLeaf() bool { return n.Left == NoNode }

// Gap returns the squared distance from v to the interval [lo, hi],
// zero if v lies inside it.
func Gap(v, lo, hi float32) float32 {
	switch {
	case v < lo:
		d := lo - v
		return d * d
	case v > hi:
		d := v - hi
		return d * d
	default:
		return 0
	}
}
