package mcts

import (
	"sync/atomic"
)

const (
	CanExpand     uint32 = 0
	ExpandingMask uint32 = 1
	ExpandedMask  uint32 = 2
	TerminalMask  uint32 = 4
)

// Node of the tree, lives in the tree's arena. Children of a node occupy
// a contiguous block of the arena, starting at firstChild
type Node[M MoveLike] struct {
	Stats NodeStats
	// Move leading from the parent to this node
	Move M

	firstChild NodeIdx
	nuChildren int32
	flags      atomic.Uint32 // must be read/written atomically
}

func (node *Node[M]) init(move M) {
	node.Stats.reset()
	node.Move = move
	node.firstChild = NilNode
	node.nuChildren = 0
	node.flags.Store(CanExpand)
}

// Reads the flags, and return whether the node is terminal
// (it was expanded, but there were no moves)
func (node *Node[M]) Terminal() bool {
	return node.flags.Load()&TerminalMask == TerminalMask
}

// Whether the children of the node are published, only then
// NuChildren and FirstChild may be used
func (node *Node[M]) Expanded() bool {
	return node.flags.Load()&ExpandedMask == ExpandedMask
}

// See if currently node is being expanded
func (node *Node[M]) Expanding() bool {
	return node.flags.Load()&ExpandingMask == ExpandingMask
}

func (node *Node[M]) NuChildren() int {
	if !node.Expanded() {
		return 0
	}
	return int(node.nuChildren)
}

func (node *Node[M]) FirstChild() NodeIdx {
	if !node.Expanded() {
		return NilNode
	}
	return node.firstChild
}

// Should be called when we want to expand this node,
// if it's possible, sets the internal flag to 'currently expanding'
func (node *Node[M]) tryBeginExpand() bool {
	return node.flags.CompareAndSwap(CanExpand, ExpandingMask)
}

// Give up the expansion, other threads may try again
func (node *Node[M]) abortExpand() {
	node.flags.Store(CanExpand)
}

// After successful 'tryBeginExpand' call, publish the children
func (node *Node[M]) finishExpanding(first NodeIdx, n int32) {
	node.firstChild = first
	node.nuChildren = n
	node.flags.Store(ExpandedMask)
}

func (node *Node[M]) setTerminal() {
	node.flags.Store(TerminalMask)
}
