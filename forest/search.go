package forest

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/kforest/internal/math32"
	"github.com/hupe1980/kforest/internal/queue"
	"github.com/hupe1980/kforest/tree"
	"github.com/hupe1980/kforest/vector"
)

// Neighbor is a search hit.
type Neighbor struct {
	Index    int     // Index into the indexed point set.
	Distance float32 // Squared Euclidean distance to the query.
}

// ApproximateNearestNeighbor returns the index of the closest point found
// within the search limit. The answer is not guaranteed to be exact.
func (ix *Index) ApproximateNearestNeighbor(query vector.Point) (int, error) {
	res, err := ix.Search(query, 1)
	if err != nil {
		return -1, err
	}
	return res[0].Index, nil
}

// Search returns up to k distinct approximate nearest neighbors, closest
// first.
func (ix *Index) Search(query vector.Point, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) != ix.dim {
		return nil, &vector.ErrDimensionMismatch{Expected: ix.dim, Actual: len(query)}
	}

	s := getSearcher()
	defer putSearcher(s)

	ix.search(s, query, k, nil)

	res := make([]Neighbor, s.best.Len())
	for i := len(res) - 1; i >= 0; i-- {
		it, _ := s.best.Pop()
		res[i] = Neighbor{Index: int(it.Node), Distance: it.Priority}
	}
	return res, nil
}

// visitFunc observes every subtree the search reaches, together with the
// bound of the entry it was derived from.
type visitFunc func(t int, id tree.NodeID, parentBound, bound float32)

// search runs best-bin-first over all trees, leaving the k best hits in
// s.best.
func (ix *Index) search(s *searcher, query vector.Point, k int, visit visitFunc) {
	for t, tr := range ix.trees {
		s.push(t, tr.Root(), 0, -1)
		if visit != nil {
			visit(t, tr.Root(), 0, 0)
		}
	}

	for probes := 0; probes < ix.cfg.SearchLimit; probes++ {
		it, ok := s.frontier.Pop()
		if !ok {
			break
		}

		// Every remaining entry is at least this far away.
		if s.best.Len() == k {
			if worst, _ := s.best.Top(); it.Priority >= worst.Priority {
				break
			}
		}

		p := s.probes[it.Node]
		tr := ix.trees[p.tree]
		id, bound, trail := p.node, it.Priority, p.trail

		for {
			n := tr.Node(id)
			if n.IsLeaf() {
				s.consider(n.Point, math32.SquaredL2(query, ix.points[n.Point]), k)
				break
			}

			q := query[n.Dim]
			near, far := n.Left, n.Right
			var gap float32
			if q >= n.Split {
				near, far = n.Right, n.Left
				if q > n.Split {
					d := q - n.Split
					gap = d * d
				}
			} else {
				d := n.Split - q
				gap = d * d
			}

			fb, ft := s.refine(bound, trail, n.Dim, gap)
			if fn := tr.Node(far); !fn.IsLeaf() {
				fb, ft = s.refine(fb, ft, fn.Dim, tree.Gap(query[fn.Dim], fn.Min, fn.Max))
			}
			s.push(int(p.tree), far, fb, ft)
			if visit != nil {
				visit(int(p.tree), far, bound, fb)
			}

			nb, nt := bound, trail
			if nn := tr.Node(near); !nn.IsLeaf() {
				nb, nt = s.refine(nb, nt, nn.Dim, tree.Gap(query[nn.Dim], nn.Min, nn.Max))
			}
			if visit != nil {
				visit(int(p.tree), near, bound, nb)
			}
			id, bound, trail = near, nb, nt
		}
	}
}

// probe is a queued subtree. trail points at the newest gap record on the
// path to it, or -1.
type probe struct {
	tree  uint32
	node  tree.NodeID
	trail int32
}

// gapRecord remembers the largest squared gap seen on one dimension along a
// path. Records form parent-linked chains shared between sibling paths.
type gapRecord struct {
	dim    uint32
	gap    float32
	parent int32
}

type searcher struct {
	frontier *queue.PriorityQueue
	best     *queue.PriorityQueue
	probes   []probe
	gaps     []gapRecord
	seen     *roaring.Bitmap
}

func (s *searcher) push(t int, id tree.NodeID, bound float32, trail int32) {
	s.probes = append(s.probes, probe{tree: uint32(t), node: id, trail: trail})
	s.frontier.Push(queue.Item{Node: uint32(len(s.probes) - 1), Priority: bound})
}

// refine adds the part of gap on dim that the path has not yet accounted
// for. Only the largest gap per dimension counts, so the sum stays a lower
// bound on the distance to every point below.
func (s *searcher) refine(bound float32, trail int32, dim uint32, gap float32) (float32, int32) {
	if gap <= 0 {
		return bound, trail
	}

	var prev float32
	for i := trail; i >= 0; i = s.gaps[i].parent {
		if s.gaps[i].dim == dim {
			prev = s.gaps[i].gap
			break
		}
	}

	if gap <= prev {
		return bound, trail
	}

	s.gaps = append(s.gaps, gapRecord{dim: dim, gap: gap, parent: trail})
	return bound + (gap - prev), int32(len(s.gaps) - 1)
}

func (s *searcher) consider(point uint32, dist float32, k int) {
	// The same point sits in every tree.
	if !s.seen.CheckedAdd(point) {
		return
	}

	if s.best.Len() < k {
		s.best.Push(queue.Item{Node: point, Priority: dist})
		return
	}

	if worst, _ := s.best.Top(); dist < worst.Priority {
		s.best.Pop()
		s.best.Push(queue.Item{Node: point, Priority: dist})
	}
}

const (
	defaultFrontierCapacity = 256
	maxRetainedProbes       = 1 << 16
)

var searcherPool = sync.Pool{
	New: func() any {
		return &searcher{
			frontier: queue.NewMin(defaultFrontierCapacity),
			best:     queue.NewMax(16),
			probes:   make([]probe, 0, defaultFrontierCapacity),
			gaps:     make([]gapRecord, 0, defaultFrontierCapacity),
			seen:     roaring.New(),
		}
	},
}

func getSearcher() *searcher {
	s := searcherPool.Get().(*searcher)
	s.reset()
	return s
}

func putSearcher(s *searcher) {
	// Drop scratch grown by an unusually large search.
	if cap(s.probes) > maxRetainedProbes || cap(s.gaps) > maxRetainedProbes {
		return
	}
	searcherPool.Put(s)
}

func (s *searcher) reset() {
	s.frontier.Reset()
	s.best.Reset()
	s.probes = s.probes[:0]
	s.gaps = s.gaps[:0]
	s.seen.Clear()
}
