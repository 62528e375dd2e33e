package tree

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/kforest/sampling"
	"github.com/hupe1980/kforest/vector"
)

// Tree is a binary space-partition tree stored in a node arena.
type Tree struct {
	nodes     []Node
	root      NodeID
	dim       int
	numPoints int
}

// Build builds a tree over all points.
func Build(points []vector.Point, numCandidateSplitDimensions int, seed int64) (*Tree, error) {
	if len(points) > math.MaxUint32/2 {
		return nil, &ConfigError{Field: "points", Value: len(points), Reason: "too many points for a 32-bit node arena"}
	}

	indices := make([]uint32, len(points))
	for i := range indices {
		indices[i] = uint32(i)
	}

	return build(points, indices, numCandidateSplitDimensions, seed)
}

// BuildSubset builds a tree over the points selected by indices.
// The indices slice is not modified.
func BuildSubset(points []vector.Point, indices []uint32, numCandidateSplitDimensions int, seed int64) (*Tree, error) {
	for _, i := range indices {
		if int(i) >= len(points) {
			return nil, &ConfigError{Field: "indices", Value: i, Reason: fmt.Sprintf("out of range for %d points", len(points))}
		}
	}

	return build(points, slices.Clone(indices), numCandidateSplitDimensions, seed)
}

func build(points []vector.Point, indices []uint32, k int, seed int64) (*Tree, error) {
	if len(indices) == 0 {
		return nil, vector.ErrEmptyInput
	}

	dim := len(points[indices[0]])
	for _, i := range indices[1:] {
		if len(points[i]) != dim {
			return nil, &vector.ErrDimensionMismatch{Expected: dim, Actual: len(points[i])}
		}
	}

	if k < 1 {
		return nil, &ConfigError{Field: "numCandidateSplitDimensions", Value: k, Reason: "must be positive"}
	}
	if k > dim {
		return nil, fmt.Errorf("%d candidate split dimensions for %d-dimensional points: %w",
			k, dim, &vector.ErrDimensionMismatch{Expected: dim, Actual: k})
	}

	b := &builder{
		points:   points,
		idx:      indices,
		nodes:    make([]Node, 0, 2*len(indices)-1),
		rng:      sampling.NewRNG(seed),
		k:        k,
		sum:      make([]float64, dim),
		sumSq:    make([]float64, dim),
		variance: make([]float64, dim),
		order:    make([]int, dim),
	}

	root := b.build(0, len(indices))

	return &Tree{
		nodes:     b.nodes,
		root:      root,
		dim:       dim,
		numPoints: len(indices),
	}, nil
}

// builder partitions one shared index slice in place; recursion passes
// [lo, hi) ranges instead of copying point collections.
type builder struct {
	points []vector.Point
	idx    []uint32
	nodes  []Node
	rng    *sampling.RNG
	k      int

	// scratch, reused across levels
	sum      []float64
	sumSq    []float64
	variance []float64
	order    []int
}

func (b *builder) build(lo, hi int) NodeID {
	if hi-lo == 1 {
		id := NodeID(len(b.nodes))
		b.nodes = append(b.nodes, Node{Left: NoNode, Right: NoNode, Point: b.idx[lo]})
		return id
	}

	d := b.sampleSplitDimension(lo, hi)

	part := b.idx[lo:hi]
	slices.SortFunc(part, func(x, y uint32) int {
		return cmp.Compare(b.points[x][d], b.points[y][d])
	})

	mid := lo + (hi-lo)/2

	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, Node{
		Dim:   uint32(d),
		Split: b.points[b.idx[mid]][d],
		Min:   b.points[b.idx[lo]][d],
		Max:   b.points[b.idx[hi-1]][d],
	})

	left := b.build(lo, mid)
	right := b.build(mid, hi)
	b.nodes[id].Left = left
	b.nodes[id].Right = right

	return id
}

// sampleSplitDimension ranks dimensions by descending variance over
// idx[lo:hi] (ties by ascending dimension) and picks one of the top k
// uniformly.
func (b *builder) sampleSplitDimension(lo, hi int) int {
	clear(b.sum)
	clear(b.sumSq)

	for _, i := range b.idx[lo:hi] {
		for j, v := range b.points[i] {
			f := float64(v)
			b.sum[j] += f
			b.sumSq[j] += f * f
		}
	}

	n := float64(hi - lo)
	for j := range b.variance {
		mean := b.sum[j] / n
		b.variance[j] = max(b.sumSq[j]/n-mean*mean, 0)
		b.order[j] = j
	}

	slices.SortStableFunc(b.order, func(x, y int) int {
		return cmp.Compare(b.variance[y], b.variance[x])
	})

	return b.order[b.rng.Intn(b.k)]
}

// Root returns the id of the root node.
func (t *Tree) Root() NodeID { return t.root }

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) Node { return t.nodes[id] }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// NumLeaves returns the number of leaves, one per indexed point.
func (t *Tree) NumLeaves() int { return t.numPoints }

// Dim returns the dimensionality of the indexed points.
func (t *Tree) Dim() int { return t.dim }

// Walk visits nodes depth-first, left before right. Returning false from fn
// skips the subtree below the visited node.
func (t *Tree) Walk(fn func(id NodeID, n Node, depth int) bool) {
	type frame struct {
		id    NodeID
		depth int
	}

	stack := []frame{{t.root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.nodes[f.id]
		if !fn(f.id, n, f.depth) || n.IsLeaf() {
			continue
		}
		stack = append(stack, frame{n.Right, f.depth + 1}, frame{n.Left, f.depth + 1})
	}
}

// Leaves returns the point indices of all leaves in left-to-right order.
func (t *Tree) Leaves() []uint32 {
	out := make([]uint32, 0, t.numPoints)
	t.Walk(func(_ NodeID, n Node, _ int) bool {
		if n.IsLeaf() {
			out = append(out, n.Point)
		}
		return true
	})
	return out
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	depth := 0
	t.Walk(func(_ NodeID, _ Node, d int) bool {
		depth = max(depth, d)
		return true
	})
	return depth
}

// Validate checks the structural invariants against the indexed points:
// every leaf references a distinct point, every inner node satisfies
// Min <= Split <= Max, and every point below the left child lies at or
// below Split while every point below the right child lies at or above it.
func (t *Tree) Validate(points []vector.Point) error {
	var errs []error

	seen := make(map[uint32]struct{}, t.numPoints)
	for _, p := range t.Leaves() {
		if _, dup := seen[p]; dup {
			errs = append(errs, fmt.Errorf("point %d appears in more than one leaf", p))
		}
		seen[p] = struct{}{}
	}
	if len(seen) != t.numPoints {
		errs = append(errs, fmt.Errorf("%d distinct leaves for %d points", len(seen), t.numPoints))
	}

	t.Walk(func(id NodeID, n Node, _ int) bool {
		if n.IsLeaf() {
			return true
		}
		if !(n.Min <= n.Split && n.Split <= n.Max) {
			errs = append(errs, fmt.Errorf("node %d: split %v outside [%v, %v]", id, n.Split, n.Min, n.Max))
		}
		t.checkSide(points, n.Left, n, true, &errs)
		t.checkSide(points, n.Right, n, false, &errs)
		return true
	})

	return errors.Join(errs...)
}

func (t *Tree) checkSide(points []vector.Point, child NodeID, parent Node, left bool, errs *[]error) {
	sub := &Tree{nodes: t.nodes, root: child}
	for _, p := range sub.Leaves() {
		v := points[p][parent.Dim]
		if v < parent.Min || v > parent.Max || (left && v > parent.Split) || (!left && v < parent.Split) {
			*errs = append(*errs, fmt.Errorf("point %d value %v on wrong side of split %v", p, v, parent.Split))
		}
	}
}
