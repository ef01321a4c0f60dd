package search

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/IlikeChooros/go-pentobi/pkg/mcts"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"
)

// Resources of a single search: at most MaxCount simulations (0 means no
// limit), and at most MaxTime (0 means no limit), but the time limit is
// checked only after MinSimulations simulations. Without any limit the
// search runs until the context is cancelled.
type Budget struct {
	MaxCount       uint64
	MinSimulations uint64
	MaxTime        time.Duration
}

// Root statistics of a color
type ColorValue struct {
	Count uint32
	Mean  float64
}

// Move generator for the polyomino game. The tree is kept between searches
// and reused when the next position follows from the last searched one.
//
// A Search is not safe for concurrent use, apart from Stop.
type Search struct {
	params  Params
	variant board.Variant
	logger  zerolog.Logger

	mcts *mcts.MCTS[board.ColorMove]
	sc   *SharedConst
	lgr  *LastGoodReply

	// Position of the last search, with the color to play set
	root     *board.Board
	toPlay   board.Color
	searched bool
	reused   bool
	elapsed  time.Duration
	check    *board.Board
}

// Create a search, the tree memory is allocated right away
func New(v board.Variant, params Params) *Search {
	s := &Search{
		variant: v,
		logger:  zerolog.Nop(),
		sc:      NewSharedConst(),
		lgr:     NewLastGoodReply(),
		root:    &board.Board{},
		check:   &board.Board{},
	}
	s.SetParams(params)
	return s
}

func (s *Search) SetLogger(logger zerolog.Logger) {
	s.logger = logger
	s.mcts.SetLogger(logger)
}

func (s *Search) Params() Params {
	return s.params
}

// Replace the parameters, a different memory size drops the tree
func (s *Search) SetParams(params Params) {
	if params.Memory <= 0 {
		params.Memory = DefaultMemory()
	}
	if params.Threads <= 0 {
		params.Threads = DefaultThreads()
	}
	if s.mcts == nil || params.Memory != s.params.Memory {
		capacity := mcts.CapacityFor[board.ColorMove](params.Memory)
		s.mcts = mcts.NewMCTS(mcts.NewTree[board.ColorMove](capacity, board.MaxColors, params.treeParams()))
		s.mcts.SetLogger(s.logger)
		s.searched = false
	}
	s.params = params
	s.mcts.Tree.SetParams(params.treeParams())
}

func (s *Search) SetListener(listener mcts.StatsListener[board.ColorMove]) {
	s.mcts.SetListener(listener)
}

// Interrupt a running search
func (s *Search) Stop() {
	s.mcts.Stop()
}

// Search a move for toPlay in the position bd. Returns false if there
// is no move or no simulation was run. A single legal move is returned
// without simulations.
func (s *Search) Search(ctx context.Context, bd *board.Board, toPlay board.Color, budget Budget) (board.ColorMove, bool) {
	if v := bd.Variant(); v != s.variant {
		if s.params.AutoParam {
			s.params.BiasTermConstant = s.params.table().Variant(v).BiasTermConstant
			s.logger.Info().Stringer("variant", v).
				Float64("bias-term-constant", s.params.BiasTermConstant).
				Msg("setting-default-parameters")
		}
		s.variant = v
	}
	tree := s.mcts.Tree
	tree.SetParams(s.params.treeParams())

	timeSource := s.params.TimeSource
	if timeSource == nil {
		timeSource = mcts.SystemTime
	}
	start := timeSource.Now()
	defer func() { s.elapsed = timeSource.Now().Sub(start) }()

	s.reused = s.followup(bd, toPlay)
	if !s.reused {
		tree.Reset()
	}
	s.root.CopyFrom(bd)
	s.root.SetToPlay(toPlay)
	s.toPlay = toPlay
	s.searched = true
	s.sc.OnStartSearch(s.root, s.params.table().Variant(s.variant).Filters)

	seed := s.params.Seed
	if seed == 0 {
		seed = frand.Uint64n(math.MaxUint64)
	}
	if s.params.LastGoodReply {
		s.lgr.Init(s.root.Const().NuMoves())
	}
	states := make([]*State, s.params.Threads)
	for id := range states {
		states[id] = NewState(s.sc, s.root, toPlay, seed+uint64(id))
		if s.params.LastGoodReply {
			states[id].SetLastGoodReply(s.lgr)
		}
	}

	nuChildren := s.mcts.ExpandRoot(states[0])
	limits := mcts.DefaultLimits().SetThreads(s.params.Threads)
	if budget.MaxCount > 0 {
		limits.SetCycles(uint32(min(budget.MaxCount, math.MaxUint32)))
	}
	if budget.MaxTime > 0 {
		// at least one simulation, a search without any has no move
		limits.SetMovetime(budget.MaxTime).SetMinCycles(uint32(min(max(budget.MinSimulations, 1), math.MaxUint32)))
	}
	s.mcts.SetLimits(limits)
	s.mcts.Limiter.SetTimeSource(timeSource)

	err := s.mcts.Search(ctx, func(threadId int) mcts.GameOperations[board.ColorMove] {
		return states[threadId]
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("search-failed")
		return board.ColorMove{}, false
	}
	switch {
	case nuChildren == 0 && tree.IsFull():
		// The root children don't fit in the tree, the simulations only
		// ran playouts from the root
		s.logger.Warn().Int("capacity", tree.Capacity()).
			Int("simulations", s.Simulations()).
			Msg("root-not-expanded")
		if s.Simulations() == 0 {
			return board.ColorMove{}, false
		}
		return states[0].RootPlayoutMove()
	case nuChildren == 0:
		s.logger.Debug().Stringer("color", toPlay).Msg("no-moves")
		return board.ColorMove{}, false
	case nuChildren == 1:
		return tree.Node(tree.Child(tree.Root(), 0)).Move, true
	case s.Simulations() == 0:
		s.logger.Debug().Bool("reused", s.reused).Msg("no-simulations")
		return board.ColorMove{}, false
	}

	mv, ok := s.mcts.BestMove(mcts.BestChildMostVisits)
	s.logger.Debug().
		Int("simulations", s.Simulations()).
		Bool("reused", s.reused).
		Stringer("stop", s.StopReason()).
		Str("move", s.root.MoveString(mv.Move)).
		Msg("search-done")
	return mv, ok
}

// Make the node of the new position the root, if it is in the tree of
// the last search
func (s *Search) followup(bd *board.Board, toPlay board.Color) bool {
	if !s.params.ReuseSubtree || !s.searched {
		return false
	}
	last := s.root
	if last.Variant() != bd.Variant() || !last.Setup().Equal(bd.Setup()) {
		return false
	}
	old, cur := last.History(), bd.History()
	if len(old) > len(cur) || !slices.Equal(old, cur[:len(old)]) {
		return false
	}

	tree := s.mcts.Tree
	s.check.CopyFrom(last)
	idx := tree.Root()
	for _, cm := range cur[len(old):] {
		s.check.Play(cm)
		if cm.IsPass() {
			continue
		}
		if idx = tree.FindChild(idx, cm); idx.IsNil() {
			return false
		}
	}
	if children := tree.Children(idx); len(children) > 0 && children[0].Move.Color != toPlay {
		return false
	}

	s.check.SetToPlay(bd.ToPlay())
	if s.check.Hash() != bd.Hash() {
		s.logger.Warn().Msg("followup-hash-mismatch")
		return false
	}

	tree.Extract(idx)
	s.logger.Debug().Int("nodes", tree.Size()).
		Uint32("visits", tree.Node(tree.Root()).Stats.Visits()).
		Msg("reuse-subtree")
	return true
}

// Per color value statistics of the simulations of the last search
func (s *Search) RootValues() []ColorValue {
	values := make([]ColorValue, s.root.NuColors())
	for c := range values {
		stats := s.mcts.Tree.RootValue(c)
		values[c] = ColorValue{Count: stats.Count(), Mean: stats.Mean()}
	}
	return values
}

// Visits of the root, including those of a reused subtree
func (s *Search) RootVisits() uint32 {
	return s.mcts.Tree.Node(s.mcts.Tree.Root()).Stats.Visits()
}

// Simulations run by the last search
func (s *Search) Simulations() int {
	return s.mcts.Cycles()
}

// Whether the last search started from the subtree of the search before it
func (s *Search) Reused() bool {
	return s.reused
}

func (s *Search) StopReason() mcts.StopReason {
	return s.mcts.StopReason()
}

func (s *Search) Tree() *mcts.Tree[board.ColorMove] {
	return s.mcts.Tree
}

// Best moves of the last search, by visits
func (s *Search) Lines(count int) []mcts.SearchLine[board.ColorMove] {
	return s.mcts.Tree.Lines(count)
}
