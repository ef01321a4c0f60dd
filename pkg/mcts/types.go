package mcts

// Other types, which didn't fit to MCTS or Node files

// Move stored in the tree. Player is the index of the value the move is
// scored with (the player or color that made it), Index is a dense, non-negative
// identifier used by the RAVE update, or -1 if the move has no RAVE statistics.
type MoveLike interface {
	comparable
	Player() int
	Index() int
}

// Index of a node in the tree's arena
type NodeIdx int32

const NilNode NodeIdx = -1

func (idx NodeIdx) IsNil() bool {
	return idx < 0
}

type BestChildPolicy int

type SeedGeneratorFnType func() int64
