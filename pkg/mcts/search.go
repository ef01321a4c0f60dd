package mcts

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// How often the coordinator checks the time and memory limits
const coordinatorInterval = 2 * time.Millisecond

// This function only sets the limits, resets the counters, and the stop flag
// doesn't actually start the search
func (mcts *MCTS[M]) setupSearch(ctx context.Context) {
	mcts.Limiter.SetContext(ctx)
	mcts.Limiter.Reset()
	mcts.tickets.Store(0)
	mcts.cps.Store(0)
	mcts.cycles.Store(0)
	mcts.halt.Store(false)
}

func (mcts *MCTS[M]) shouldStop() bool {
	return mcts.halt.Load() || mcts.Limiter.Stop()
}

func (mcts *MCTS[M]) limitArgs() (size, depth, cycles uint32) {
	return uint32(mcts.Tree.Size()), uint32(mcts.Tree.MaxDepth()), uint32(mcts.Cycles())
}

// Run the search with Limits().NThreads threads, until a limit is reached or
// the context is cancelled. The root should be expanded with ExpandRoot first.
// Blocks until all threads are done.
func (mcts *MCTS[M]) Search(ctx context.Context, newOps OpsFactory[M]) error {
	mcts.setupSearch(ctx)
	threads := max(1, mcts.Limits().NThreads)

	// With a single move there is nothing to choose from
	root := mcts.Tree.Node(mcts.Tree.Root())
	if root.Terminal() || root.NuChildren() <= 1 {
		mcts.finish()
		return nil
	}

	// Coordinator: checks the limits, that don't depend on a single thread's progress
	done := make(chan struct{})
	coordinatorDone := make(chan struct{})
	go func() {
		defer close(coordinatorDone)
		ticker := time.NewTicker(coordinatorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !mcts.Limiter.Ok(mcts.limitArgs()) {
					mcts.halt.Store(true)
					return
				}
			}
		}
	}()

	var g errgroup.Group
	for id := range threads {
		ops := newOps(id)
		g.Go(func() error {
			mcts.run(ops, id)
			return nil
		})
	}
	err := g.Wait()
	close(done)
	<-coordinatorDone

	mcts.finish()
	return err
}

func (mcts *MCTS[M]) finish() {
	mcts.Limiter.EvaluateStopReason(mcts.limitArgs())
	mcts.Limiter.SetStop(true)
	mcts.listener.invoke(mcts.listener.onStop, mcts)
	mcts.logger.Debug().
		Int("cycles", mcts.Cycles()).
		Uint32("cps", mcts.Cps()).
		Int("size", mcts.Tree.Size()).
		Int("maxdepth", mcts.Tree.MaxDepth()).
		Int64("collisions", mcts.Tree.Collisions()).
		Stringer("stop", mcts.StopReason()).
		Msg("search-finished")
}

// Actual search loop of a single thread, simply calls:
//
// 1. selection - to choose the most promising node, expanding it if needed
//
// 2. playout - to simulate the game until the end, and get its result
//
// 3. backpropagate - to update the statistics up to the root
//
// Until runs out of the allocated time, simulations, or is stopped.
// threadId must be unique, 0 meaning it's the main search thread with some privileges
func (mcts *MCTS[M]) run(ops GameOperations[M], threadId int) {
	limits := mcts.Limits()
	marker := NewAmafMarker(0)
	path := make([]NodeIdx, 0, 64)
	var children []M

	for !mcts.shouldStop() {
		// Claim a simulation, so that the cycle limit is never exceeded
		if !limits.Infinite && mcts.tickets.Add(1) > uint64(limits.Cycles) {
			mcts.halt.Store(true)
			break
		}

		path, children = mcts.selection(ops, path[:0], children, threadId)
		ops.Playout()
		mcts.Tree.Backpropagate(path, ops.Moves(), ops.Evaluate(), marker)

		// Increment cycle count and store the cps
		cycles := mcts.cycles.Add(1)
		if threadId == mainThreadId {
			mcts.cps.Store(uint32(uint64(cycles) * 1000 / uint64(mcts.Limiter.Elapsed())))
			if mcts.listener.onCycle != nil && int(cycles)%mcts.listener.nCycles == 0 {
				mcts.listener.invoke(mcts.listener.onCycle, mcts)
			}
		}
	}
}

// Descend from the root choosing the children by their selection score, applying a
// virtual loss to every node on the way. A leaf with enough visits gets expanded,
// unless another thread is already doing it, then it's used as a leaf (collision).
func (mcts *MCTS[M]) selection(ops GameOperations[M], path []NodeIdx, children []M, threadId int) ([]NodeIdx, []M) {
	tree := mcts.Tree
	threshold := uint32(max(tree.params.ExpandThreshold, 0))

	ops.StartSimulation()
	idx := tree.Root()
	path = append(path, idx)
	for {
		node := tree.Node(idx)
		if !node.Expanded() {
			if node.Terminal() || node.Stats.Visits() < threshold || !mcts.Limiter.Expand() {
				break
			}
			if !tree.TryBeginExpand(idx) {
				if node.Expanded() {
					continue
				}
				tree.collisions.Add(1)
				break
			}
			children = ops.GenChildren(children[:0])
			if !tree.FinishExpand(idx, children) {
				mcts.Limiter.DisableExpand()
				break
			}
			if len(children) == 0 {
				break
			}
		}

		idx = tree.SelectChild(idx)
		child := tree.Node(idx)
		child.Stats.AddVirtualLoss()
		ops.PlayInTree(child.Move)
		path = append(path, idx)
	}

	if tree.updateDepth(len(path)-1) && threadId == mainThreadId {
		mcts.listener.invoke(mcts.listener.onDepth, mcts)
	}
	return path, children
}
