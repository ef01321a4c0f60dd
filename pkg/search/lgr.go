package search

import (
	"sync/atomic"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
)

// Last good reply table: for every color the reply to a move, that won the
// last playout it was played in. Shared by the threads of a search, the
// entries are read and written atomically without any other locking.
type LastGoodReply struct {
	replies [board.MaxColors][]atomic.Int32
}

func NewLastGoodReply() *LastGoodReply {
	return &LastGoodReply{}
}

// Forget all replies, nuMoves is the size of the move table of the variant
func (lgr *LastGoodReply) Init(nuMoves int) {
	for c := range lgr.replies {
		if len(lgr.replies[c]) != nuMoves {
			lgr.replies[c] = make([]atomic.Int32, nuMoves)
		}
		for i := range lgr.replies[c] {
			lgr.replies[c][i].Store(int32(board.NullMove))
		}
	}
}

// Reply of c to prev, NullMove if none is stored
func (lgr *LastGoodReply) Get(c board.Color, prev board.Move) board.Move {
	if !prev.IsRegular() || int(prev) >= len(lgr.replies[c]) {
		return board.NullMove
	}
	return board.Move(lgr.replies[c][prev].Load())
}

// Store the replies of the colors that won the game with the given moves and
// result, the replies of the colors that lost are forgotten. Ties change nothing.
func (lgr *LastGoodReply) Update(moves []board.ColorMove, values []float64) {
	for i := 1; i < len(moves); i++ {
		prev, cm := moves[i-1].Move, moves[i]
		if !prev.IsRegular() || !cm.Move.IsRegular() || int(prev) >= len(lgr.replies[cm.Color]) {
			continue
		}
		entry := &lgr.replies[cm.Color][prev]
		switch v := values[cm.Color]; {
		case v > 0.5:
			entry.Store(int32(cm.Move))
		case v < 0.5:
			entry.CompareAndSwap(int32(cm.Move), int32(board.NullMove))
		}
	}
}
