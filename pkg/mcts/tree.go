package mcts

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Search tree stored in an arena of nodes. There are two arenas: the reused
// part of the tree is copied into the spare one on Extract, then they are swapped.
//
// Expansion and statistics updates are safe for concurrent use,
// Reset and Extract must not run concurrently with anything else.
type Tree[M MoveLike] struct {
	arenas [2][]Node[M]
	cur    int
	size   atomic.Int32

	params     TreeParams
	rootValues []ValueStats

	maxDepth   atomic.Int32
	collisions atomic.Int64
	full       atomic.Bool
}

// Size in bytes of a single node
func NodeSize[M MoveLike]() int {
	var node Node[M]
	return int(unsafe.Sizeof(node))
}

// Number of nodes of each of the two arenas, fitting in the memory budget
func CapacityFor[M MoveLike](memory int64) int {
	return max(1, int(memory/int64(2*NodeSize[M]())))
}

// Create a new tree, with 'capacity' nodes in each arena and root
// statistics for 'nuValues' players
func NewTree[M MoveLike](capacity, nuValues int, params TreeParams) *Tree[M] {
	if capacity < 1 {
		panic(fmt.Sprintf("mcts: tree capacity must be positive, got %d", capacity))
	}
	t := &Tree[M]{
		params:     params,
		rootValues: make([]ValueStats, nuValues),
	}
	t.arenas[0] = make([]Node[M], capacity)
	t.arenas[1] = make([]Node[M], capacity)
	t.Reset()
	return t
}

// Remove all nodes, apart from a fresh, unexpanded root
func (t *Tree[M]) Reset() {
	var zero M
	t.arenas[t.cur][0].init(zero)
	t.size.Store(1)
	for i := range t.rootValues {
		t.rootValues[i].reset()
	}
	t.maxDepth.Store(0)
	t.collisions.Store(0)
	t.full.Store(false)
}

func (t *Tree[M]) SetParams(params TreeParams) {
	t.params = params
}

func (t *Tree[M]) Params() TreeParams {
	return t.params
}

func (t *Tree[M]) Root() NodeIdx {
	return 0
}

func (t *Tree[M]) Node(idx NodeIdx) *Node[M] {
	return &t.arenas[t.cur][idx]
}

// Children of the node, empty if the node is not expanded
func (t *Tree[M]) Children(idx NodeIdx) []Node[M] {
	node := t.Node(idx)
	n := node.NuChildren()
	if n == 0 {
		return nil
	}
	first := node.firstChild
	return t.arenas[t.cur][first : int(first)+n]
}

// Index of the i-th child of the node
func (t *Tree[M]) Child(idx NodeIdx, i int) NodeIdx {
	return t.Node(idx).FirstChild() + NodeIdx(i)
}

// Number of nodes in use
func (t *Tree[M]) Size() int {
	return int(t.size.Load())
}

// Maximum number of nodes
func (t *Tree[M]) Capacity() int {
	return len(t.arenas[t.cur])
}

// Whether an expansion was refused, because the arena had no space left
func (t *Tree[M]) IsFull() bool {
	return t.full.Load()
}

// Maximum depth reached during the search
func (t *Tree[M]) MaxDepth() int {
	return int(t.maxDepth.Load())
}

// Record a playout reaching the depth, returns true if that's a new maximum
func (t *Tree[M]) updateDepth(depth int) bool {
	for {
		cur := t.maxDepth.Load()
		if int32(depth) <= cur {
			return false
		}
		if t.maxDepth.CompareAndSwap(cur, int32(depth)) {
			return true
		}
	}
}

// The number of times a node was chosen for expansion, but it was already
// being expanded by another thread
func (t *Tree[M]) Collisions() int64 {
	return t.collisions.Load()
}

// Value statistics of the finished playouts, from the point of view of the player
func (t *Tree[M]) RootValue(player int) *ValueStats {
	return &t.rootValues[player]
}

func (t *Tree[M]) NuValues() int {
	return len(t.rootValues)
}

// Should be called when we want to expand the node, returns true if this thread
// won the right to do it. It must then call FinishExpand or AbortExpand
func (t *Tree[M]) TryBeginExpand(idx NodeIdx) bool {
	return t.Node(idx).tryBeginExpand()
}

func (t *Tree[M]) AbortExpand(idx NodeIdx) {
	t.Node(idx).abortExpand()
}

// Publish the children of the node, after a successful TryBeginExpand. Without moves
// the node becomes terminal. Returns false (and releases the node) if there is no
// space left in the arena
func (t *Tree[M]) FinishExpand(idx NodeIdx, moves []M) bool {
	node := t.Node(idx)
	if len(moves) == 0 {
		node.setTerminal()
		return true
	}

	n := int32(len(moves))
	var first int32
	for {
		first = t.size.Load()
		if int(first+n) > t.Capacity() {
			t.full.Store(true)
			node.abortExpand()
			return false
		}
		if t.size.CompareAndSwap(first, first+n) {
			break
		}
	}

	arena := t.arenas[t.cur]
	for i, mv := range moves {
		arena[int(first)+i].init(mv)
	}
	node.finishExpanding(NodeIdx(first), n)
	return true
}

// Find the child with the given move, NilNode if there is none
func (t *Tree[M]) FindChild(idx NodeIdx, move M) NodeIdx {
	children := t.Children(idx)
	for i := range children {
		if children[i].Move == move {
			return t.Child(idx, i)
		}
	}
	return NilNode
}

// Make the node the new root, keeping its subtree. The subtree is copied into
// the spare arena, virtual losses and unfinished expansions are dropped
func (t *Tree[M]) Extract(newRoot NodeIdx) {
	src, dst := t.arenas[t.cur], t.arenas[1-t.cur]

	type pair struct{ from, to NodeIdx }
	queue := []pair{{newRoot, 0}}
	size := NodeIdx(1)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		s, d := &src[p.from], &dst[p.to]

		d.init(s.Move)
		d.Stats.copyFrom(&s.Stats)
		switch {
		case s.Expanded():
			first := size
			size += NodeIdx(s.nuChildren)
			for i := range NodeIdx(s.nuChildren) {
				queue = append(queue, pair{s.firstChild + i, first + i})
			}
			d.finishExpanding(first, s.nuChildren)
		case s.Terminal():
			d.setTerminal()
		}
	}

	t.cur = 1 - t.cur
	t.size.Store(int32(size))
	for i := range t.rootValues {
		t.rootValues[i].reset()
	}
	t.maxDepth.Store(0)
	t.collisions.Store(0)
	t.full.Store(false)
}

// Order of children by strength: more visits first, then higher mean value
func CompareNodes[M MoveLike](a, b *Node[M]) int {
	va, vb := a.Stats.Visits(), b.Stats.Visits()
	if va != vb {
		if va > vb {
			return -1
		}
		return 1
	}
	ma, mb := a.Stats.Mean(0), b.Stats.Mean(0)
	switch {
	case ma > mb:
		return -1
	case ma < mb:
		return 1
	}
	return 0
}

// Return best visited child, based on the policy, NilNode if there is none
func (t *Tree[M]) BestChild(idx NodeIdx, policy BestChildPolicy) NodeIdx {
	best := NilNode
	var bestNode *Node[M]
	children := t.Children(idx)
	for i := range children {
		child := &children[i]
		if child.Stats.Visits() == 0 {
			continue
		}
		better := bestNode == nil
		if !better {
			switch policy {
			case BestChildWinRate:
				better = child.Stats.Mean(0) > bestNode.Stats.Mean(0)
			default:
				better = CompareNodes(child, bestNode) < 0
			}
		}
		if better {
			best, bestNode = t.Child(idx, i), child
		}
	}
	return best
}

// Get the principal variation (ie. the best sequence of moves)
// from given starting node, based on given best child policy
func (t *Tree[M]) Pv(from NodeIdx, policy BestChildPolicy) []M {
	var pv []M
	for node := t.BestChild(from, policy); !node.IsNil(); node = t.BestChild(node, policy) {
		pv = append(pv, t.Node(node).Move)
	}
	return pv
}
