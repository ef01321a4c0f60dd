package search

import (
	"testing"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/stretchr/testify/require"
)

func TestLastGoodReplyUpdate(t *testing.T) {
	bc := registry.BoardConst(board.Duo)
	lgr := NewLastGoodReply()
	lgr.Init(bc.NuMoves())

	a, b, c := board.Move(10), board.Move(20), board.Move(30)
	moves := []board.ColorMove{{Color: 0, Move: a}, {Color: 1, Move: b}, {Color: 0, Move: c}}
	lgr.Update(moves, []float64{1, 0})
	require.Equal(t, c, lgr.Get(0, b))
	require.Equal(t, board.NullMove, lgr.Get(1, a))

	// A tie keeps the reply, a loss forgets it
	lgr.Update(moves, []float64{0.5, 0.5})
	require.Equal(t, c, lgr.Get(0, b))
	lgr.Update(moves, []float64{0, 1})
	require.Equal(t, board.NullMove, lgr.Get(0, b))
	require.Equal(t, b, lgr.Get(1, a))

	// Only the stored reply is forgotten
	other := []board.ColorMove{{Color: 0, Move: a}, {Color: 1, Move: c}}
	lgr.Update(other, []float64{1, 0})
	require.Equal(t, b, lgr.Get(1, a))

	lgr.Update([]board.ColorMove{board.Pass(1), {Color: 0, Move: a}}, []float64{1, 0})
	require.Equal(t, board.NullMove, lgr.Get(0, board.PassMove))

	lgr.Init(bc.NuMoves())
	require.Equal(t, board.NullMove, lgr.Get(1, a))
}

func TestStatePlaysLastGoodReply(t *testing.T) {
	bd := board.New(registry, board.Duo)
	sc := NewSharedConst()
	sc.OnStartSearch(bd, nil)
	lgr := NewLastGoodReply()
	lgr.Init(bd.Const().NuMoves())
	state := NewState(sc, bd, 0, 7)
	state.SetLastGoodReply(lgr)

	state.StartSimulation()
	first := state.GenChildren(nil)[0]
	state.PlayInTree(first)
	replies := state.Board().AppendLegalMoves(1, nil, nil, nil, nil)
	reply := board.ColorMove{Color: 1, Move: replies[len(replies)-1]}
	lgr.Update([]board.ColorMove{first, reply}, []float64{0, 1})

	state.Playout()
	require.Equal(t, reply, state.Moves()[1])

	// The finished playout updates the table
	values := state.Evaluate()
	moves := state.Moves()
	for i := 1; i < len(moves); i++ {
		if values[moves[i].Color] > 0.5 {
			require.Equal(t, moves[i].Move, lgr.Get(moves[i].Color, moves[i-1].Move))
		}
	}
}

func TestStateIgnoresIllegalReply(t *testing.T) {
	bd := board.New(registry, board.Duo)
	sc := NewSharedConst()
	sc.OnStartSearch(bd, nil)
	lgr := NewLastGoodReply()
	lgr.Init(bd.Const().NuMoves())
	state := NewState(sc, bd, 0, 7)
	state.SetLastGoodReply(lgr)

	state.StartSimulation()
	first := state.GenChildren(nil)[0]
	state.PlayInTree(first)

	// The reply overlaps the first move
	lgr.Update([]board.ColorMove{first, {Color: 1, Move: first.Move}}, []float64{0, 1})
	require.Equal(t, first.Move, lgr.Get(1, first.Move))
	state.Playout()
	require.NotEqual(t, first.Move, state.Moves()[1].Move)
	require.True(t, state.Board().IsGameOver())
}
