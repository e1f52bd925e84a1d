// Package spatial holds the bounding volume hierarchy used as the broad phase
// for static geometry. A Tree is built once and is then read-only: any number
// of goroutines may query it concurrently, but Build must not overlap queries.
package spatial

import (
	"math"
	"sort"

	"github.com/zeusync/arcade/internal/core/physics"
	"github.com/zeusync/arcade/pkg/generic"
	"github.com/zeusync/arcade/pkg/sequence"
)

// Handle is a dense index assigned by the owner of the indexed geometry.
type Handle uint32

// Entry is one indexed bounding box.
type Entry struct {
	Handle Handle
	Box    physics.AABB
}

const (
	leafSize = 2
	noChild  = -1
)

type node struct {
	box         physics.AABB
	left, right int32
	start       int32
	count       int32
}

func (n *node) isLeaf() bool { return n.left == noChild }

// Tree is a bounding volume hierarchy keyed by Handle.
type Tree struct {
	nodes   []node
	entries []Entry
	depth   int
}

// Statistics describes the shape of a built tree.
type Statistics struct {
	NodeCount  int
	EntryCount int
	MaxDepth   int
}

var frontiers = generic.NewPool(
	func() *sequence.PriorityQueue[int32] { return sequence.NewPriorityQueue[int32]() },
	func(q *sequence.PriorityQueue[int32]) { q.Reset() },
)

// New returns an empty tree.
func New() *Tree { return &Tree{} }

// Build replaces the tree contents with a balanced hierarchy over entries.
// An empty slice yields a tree that reports no hits. Boxes must be well formed.
func (t *Tree) Build(entries []Entry) {
	t.entries = append(t.entries[:0], entries...)
	t.nodes = t.nodes[:0]
	t.depth = 0
	if len(t.entries) == 0 {
		return
	}
	t.nodes = make([]node, 0, 2*len(t.entries))
	t.build(0, int32(len(t.entries)), 1)
}

func (t *Tree) build(start, end int32, depth int) int32 {
	if depth > t.depth {
		t.depth = depth
	}

	box := physics.EmptyAABB()
	centroids := physics.EmptyAABB()
	for _, e := range t.entries[start:end] {
		box = box.Union(e.Box)
		c := e.Box.Center()
		centroids = centroids.Union(physics.AABB{Min: c, Max: c})
	}

	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{box: box, left: noChild, right: noChild, start: start, count: end - start})
	if end-start <= leafSize {
		return idx
	}

	axis := 0
	if extent := centroids.Max.Sub(centroids.Min); extent[1] > extent[0] {
		axis = 1
	}
	part := t.entries[start:end]
	sort.Slice(part, func(i, j int) bool {
		ci, cj := part[i].Box.Center()[axis], part[j].Box.Center()[axis]
		if ci != cj {
			return ci < cj
		}
		return part[i].Handle < part[j].Handle
	})

	mid := start + (end-start)/2
	left := t.build(start, mid, depth+1)
	right := t.build(mid, end, depth+1)
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	t.nodes[idx].count = 0
	return idx
}

// Len returns the number of indexed entries.
func (t *Tree) Len() int { return len(t.entries) }

// Bounds returns the box enclosing every entry and false for an empty tree.
func (t *Tree) Bounds() (physics.AABB, bool) {
	if len(t.nodes) == 0 {
		return physics.AABB{}, false
	}
	return t.nodes[0].box, true
}

// Statistics reports the node count, entry count and depth of the tree.
func (t *Tree) Statistics() Statistics {
	return Statistics{NodeCount: len(t.nodes), EntryCount: len(t.entries), MaxDepth: t.depth}
}

// BoundFunc returns a lower bound on the cost of anything inside box.
// Returning +Inf prunes the box.
type BoundFunc func(box physics.AABB) float64

// LeafFunc evaluates one entry exactly. best is the cost to beat; better
// must be true only when the returned result should replace the current best.
type LeafFunc[R any] func(h Handle, best float64) (cost float64, result R, better bool)

// Query walks the tree in ascending lower-bound order and returns the best
// entry found. Subtrees whose bound exceeds the current best are skipped, so
// once the frontier's cheapest bound is worse than the best result the search
// stops. Entries whose bound equals the best are still evaluated, which lets
// the leaf function break ties. found is false when nothing beat initial.
func Query[R any](t *Tree, initial float64, bound BoundFunc, leaf LeafFunc[R]) (h Handle, result R, found bool) {
	if len(t.nodes) == 0 {
		return h, result, false
	}
	best := initial

	frontier := frontiers.Get()
	defer frontiers.Put(frontier)

	if b := bound(t.nodes[0].box); !(b > best) && !math.IsNaN(b) {
		frontier.Enqueue(0, b)
	}

	for {
		if _, cost, ok := frontier.Peek(); !ok || cost > best {
			break
		}
		ni, _, _ := frontier.Dequeue()
		n := &t.nodes[ni]
		if n.isLeaf() {
			for _, e := range t.entries[n.start : n.start+n.count] {
				if eb := bound(e.Box); eb > best || math.IsNaN(eb) {
					continue
				}
				c, r, better := leaf(e.Handle, best)
				if better {
					best, h, result, found = c, e.Handle, r, true
				}
			}
			continue
		}
		for _, ci := range [2]int32{n.left, n.right} {
			if b := bound(t.nodes[ci].box); !(b > best) && !math.IsNaN(b) {
				frontier.Enqueue(ci, b)
			}
		}
	}
	return h, result, found
}
