package mcts

import "slices"

type SearchLine[M MoveLike] struct {
	BestMove M
	Moves    []M
	Eval     float64
	Visits   uint32
}

type ListenerTreeStats[M MoveLike] struct {
	Maxdepth   int
	Cycles     int
	TimeMs     int
	Cps        uint32
	Size       int
	Lines      []SearchLine[M]
	StopReason StopReason
}

// Best 'count' lines of the tree, starting with the root children in CompareNodes order
func (t *Tree[M]) Lines(count int) []SearchLine[M] {
	children := t.Children(t.Root())
	order := make([]int, len(children))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return CompareNodes(&children[a], &children[b])
	})

	lines := make([]SearchLine[M], 0, min(count, len(order)))
	for _, i := range order[:min(count, len(order))] {
		child := &children[i]
		if child.Stats.Visits() == 0 {
			break
		}
		idx := t.Child(t.Root(), i)
		lines = append(lines, SearchLine[M]{
			BestMove: child.Move,
			Moves:    append([]M{child.Move}, t.Pv(idx, BestChildMostVisits)...),
			Eval:     child.Stats.Mean(0),
			Visits:   child.Stats.Visits(),
		})
	}
	return lines
}

// Convert MCTS state to 'ListenerTreeStats' struct
func toListenerStats[M MoveLike](mcts *MCTS[M], multiPv int) ListenerTreeStats[M] {
	return ListenerTreeStats[M]{
		Lines:      mcts.Tree.Lines(multiPv),
		Maxdepth:   mcts.Tree.MaxDepth(),
		Cycles:     mcts.Cycles(),
		TimeMs:     int(mcts.Limiter.Elapsed()),
		Cps:        mcts.Cps(),
		Size:       mcts.Tree.Size(),
		StopReason: mcts.Limiter.StopReason(),
	}
}

// Listener function callback, will recieve current tree statistics, like
// max depth of tree, number of iterations so far
type ListenerFunc[M MoveLike] func(ListenerTreeStats[M])

type StatsListener[M MoveLike] struct {
	// called when 'max depth' increases, receives new max depth
	onDepth ListenerFunc[M]

	// called every N full iterations, receives total number of cycles
	onCycle ListenerFunc[M]
	nCycles int // call 'onCycle' every N cycles

	// called when the search stops (either by limiter or 'stop' signal)
	onStop ListenerFunc[M]

	// number of lines passed to the callbacks
	multiPv int
}

func NewStatsListener[M MoveLike]() StatsListener[M] {
	return StatsListener[M]{nCycles: 1, multiPv: 1}
}

// Attach new on max depth change callback, will be called only be the main search thread,
// meaning no need for synchronization here
func (listener *StatsListener[M]) OnDepth(onDepth ListenerFunc[M]) *StatsListener[M] {
	listener.onDepth = onDepth
	return listener
}

// Attach new on iteration increase callback, this will slow down the search,
// because of pv evaluation, so use it with a large cycle interval
func (listener *StatsListener[M]) OnCycle(onCycle ListenerFunc[M]) *StatsListener[M] {
	listener.onCycle = onCycle
	return listener
}

func (listener *StatsListener[M]) SetCycleInterval(n int) *StatsListener[M] {
	listener.nCycles = max(n, 1)
	return listener
}

func (listener *StatsListener[M]) SetMultiPv(n int) *StatsListener[M] {
	listener.multiPv = max(n, 1)
	return listener
}

// Attach 'on search end' callback, called once after all threads finished,
// makes 'StopReason' available in the stats
func (listener *StatsListener[M]) OnStop(onStop ListenerFunc[M]) *StatsListener[M] {
	listener.onStop = onStop
	return listener
}

func (listener *StatsListener[M]) invoke(f ListenerFunc[M], mcts *MCTS[M]) {
	if f != nil {
		f(toListenerStats(mcts, listener.multiPv))
	}
}
