package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/IlikeChooros/go-pentobi/pkg/search"
	"github.com/stretchr/testify/require"
)

var registry = board.NewRegistry()

func testPlayer(name string, v board.Variant, seed uint64) Player {
	params := search.DefaultParams(v)
	params.Threads = 1
	params.Memory = 4 << 20
	params.Seed = seed
	return Player{
		Name:   name,
		Params: params,
		Budget: search.Budget{MaxCount: 20},
	}
}

type countingListener struct {
	DefaultListener
	started  atomic.Int32
	moves    atomic.Int32
	finished atomic.Int32
	workers  atomic.Int32
}

func (c *countingListener) OnGameStart(int)                 { c.started.Add(1) }
func (c *countingListener) OnMoveMade(VersusWorkerInfo)     { c.moves.Add(1) }
func (c *countingListener) OnFinishedGame(VersusWorkerInfo) { c.finished.Add(1) }
func (c *countingListener) OnFinishedWork(VersusWorkerInfo) { c.workers.Add(1) }

func playOut(t *testing.T, v board.Variant) *board.Board {
	t.Helper()
	bd := board.New(registry, v)
	for !bd.IsGameOver() {
		c := bd.ToPlay()
		moves := bd.AppendLegalMoves(c, nil, nil, nil, nil)
		if len(moves) == 0 {
			bd.Play(board.Pass(c))
			continue
		}
		require.NoError(t, bd.PlayChecked(board.ColorMove{Color: c, Move: moves[len(moves)/2]}))
	}
	return bd
}

func TestEngineOf(t *testing.T) {
	require.Equal(t, 0, engineOf(board.Duo, 0, false))
	require.Equal(t, 1, engineOf(board.Duo, 1, false))
	require.Equal(t, 1, engineOf(board.Duo, 0, true))

	// Colors 0 and 2 belong to the first player
	require.Equal(t, 0, engineOf(board.Classic2, 2, false))
	require.Equal(t, 1, engineOf(board.Classic2, 3, false))
	require.Equal(t, 0, engineOf(board.Classic2, 3, true))
}

func TestComputeOutcome(t *testing.T) {
	bd := playOut(t, board.Duo)

	outcome := computeOutcome(bd, false)
	require.True(t, outcome.P1First)
	require.Equal(t, bd.Points(0), outcome.P1Points)
	require.Equal(t, bd.Points(1), outcome.P2Points)

	switched := computeOutcome(bd, true)
	require.False(t, switched.P1First)
	require.Equal(t, outcome.P1Points, switched.P2Points)
	require.Equal(t, outcome.P2Points, switched.P1Points)
	require.Equal(t, -outcome.Result, switched.Result)

	require.Panics(t, func() { computeOutcome(board.New(registry, board.Duo), false) })
}

func TestArenaStats(t *testing.T) {
	var stats VersusArenaStats
	stats.add(GameOutcome{Result: VersusPl1Win, P1First: true})
	stats.add(GameOutcome{Result: VersusPl1Win, P1First: false})
	stats.add(GameOutcome{Result: VersusPl2Win, P1First: true})
	stats.add(GameOutcome{Result: VersusDraw})

	require.Equal(t, 4, stats.Total())
	require.Equal(t, 2, stats.P1Wins())
	require.Equal(t, 1, stats.P2Wins())
	require.Equal(t, 1, stats.Draws())
	require.Equal(t, 1, stats.FirstToMoveWins())
	require.Equal(t, 2, stats.SecondToMoveWins())
}

func TestVersusArena(t *testing.T) {
	arena := NewVersusArena(registry, board.Duo,
		testPlayer("p1", board.Duo, 1), testPlayer("p2", board.Duo, 2))
	arena.Setup(3, 2)

	counter := &countingListener{}
	var buf bytes.Buffer
	jsonListener := NewJSONSummaryListener(&buf)

	summary, err := arena.Run(context.Background(), NewArenaListener(counter, jsonListener))
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalGames)
	require.Equal(t, 3, summary.P1Wins+summary.P2Wins+summary.Draws)
	require.Equal(t, summary.P1Wins+summary.P2Wins, summary.FirstToMoveWins+summary.SecondToMoveWins)
	require.Equal(t, "duo", summary.Variant)

	require.EqualValues(t, 3, counter.started.Load())
	require.EqualValues(t, 3, counter.finished.Load())
	require.EqualValues(t, 2, counter.workers.Load())
	require.Greater(t, counter.moves.Load(), int32(3*4))

	require.NoError(t, jsonListener.Err())
	var decoded VersusSummaryInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, summary, decoded)
}

func TestVersusArenaCancelled(t *testing.T) {
	arena := NewVersusArena(registry, board.Duo,
		testPlayer("p1", board.Duo, 1), testPlayer("p2", board.Duo, 2))
	arena.Setup(2, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := arena.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, summary.TotalGames)
}
