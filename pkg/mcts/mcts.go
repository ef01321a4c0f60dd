package mcts

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Tree parallel Monte Carlo tree search: all threads share one Tree, and
// synchronize through atomic statistics, virtual loss and the expansion guard
type MCTS[M MoveLike] struct {
	Tree     *Tree[M]
	Limiter  LimiterLike
	listener *StatsListener[M]
	logger   zerolog.Logger

	// simulations started (claimed) and finished
	tickets atomic.Uint64
	cycles  atomic.Uint32
	cps     atomic.Uint32
	// set by the coordinator or a thread, when a limit is reached
	halt atomic.Bool
}

// Create new search on the tree
func NewMCTS[M MoveLike](tree *Tree[M]) *MCTS[M] {
	listener := NewStatsListener[M]()
	mcts := &MCTS[M]{
		Tree:     tree,
		Limiter:  LimiterLike(NewLimiter(uint32(NodeSize[M]()))),
		listener: &listener,
		logger:   zerolog.Nop(),
	}

	// Set IsSearching to false
	mcts.Limiter.SetStop(true)
	return mcts
}

func (mcts *MCTS[M]) SetLogger(logger zerolog.Logger) {
	mcts.logger = logger
}

func (mcts *MCTS[M]) ResetListener() {
	mcts.listener.OnCycle(nil).OnDepth(nil).OnStop(nil)
}

func (mcts *MCTS[M]) StatsListener() *StatsListener[M] {
	return mcts.listener
}

func (mcts *MCTS[M]) SetListener(listener StatsListener[M]) {
	*mcts.listener = listener
}

func (mcts *MCTS[M]) IsSearching() bool {
	return !mcts.Limiter.Stop()
}

// Stop the search
func (mcts *MCTS[M]) Stop() {
	mcts.Limiter.SetStop(true)
}

// Total number of 'iterations', 'cycles', 'simulations' finished during the search
func (mcts *MCTS[M]) Cycles() int {
	return int(mcts.cycles.Load())
}

// Get cycles per second statistic
func (mcts *MCTS[M]) Cps() uint32 {
	return mcts.cps.Load()
}

// Number of all collisions in the tree divided by the number of all cycles,
// for more info see Tree.Collisions
func (mcts *MCTS[M]) CollisionFactor() float64 {
	if mcts.Cycles() == 0 {
		return 0
	}
	return float64(mcts.Tree.Collisions()) / float64(mcts.Cycles())
}

// Get the reason why the search was stopped, valid after search ends
func (mcts *MCTS[M]) StopReason() StopReason {
	return mcts.Limiter.StopReason()
}

func (mcts *MCTS[M]) SetLimits(limits *Limits) {
	mcts.Limiter.SetLimits(limits)
}

func (mcts *MCTS[M]) Limits() *Limits {
	return mcts.Limiter.Limits()
}

func (mcts *MCTS[M]) String() string {
	return fmt.Sprintf("MCTS={Size=%d, Stats:{maxdepth=%d, cps=%d, cycles=%d}, Stop=%v}",
		mcts.Tree.Size(), mcts.Tree.MaxDepth(), mcts.Cps(), mcts.Cycles(), !mcts.IsSearching())
}

// Expand the root (single threaded), returns the number of root children.
// A root that was already expanded (reused subtree) is left untouched
func (mcts *MCTS[M]) ExpandRoot(ops GameOperations[M]) int {
	tree := mcts.Tree
	root := tree.Root()
	if node := tree.Node(root); node.Expanded() || node.Terminal() {
		return node.NuChildren()
	}

	ops.StartSimulation()
	if tree.TryBeginExpand(root) && !tree.FinishExpand(root, ops.GenChildren(nil)) {
		mcts.Limiter.DisableExpand()
	}
	return tree.Node(root).NuChildren()
}

// 'the best move' in the position, false if no root child was visited
func (mcts *MCTS[M]) BestMove(policy BestChildPolicy) (M, bool) {
	var move M
	best := mcts.Tree.BestChild(mcts.Tree.Root(), policy)
	if best.IsNil() {
		return move, false
	}
	return mcts.Tree.Node(best).Move, true
}
