package bench

import (
	"sync/atomic"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
)

type VersusMatchResult int

const (
	VersusPl1Win VersusMatchResult = 1
	VersusPl2Win VersusMatchResult = -1
	VersusDraw   VersusMatchResult = 0
)

func (r VersusMatchResult) String() string {
	switch r {
	case VersusPl1Win:
		return "player1"
	case VersusPl2Win:
		return "player2"
	}
	return "draw"
}

type VersusArenaStats struct {
	p1Wins           atomic.Uint32
	p2Wins           atomic.Uint32
	draws            atomic.Uint32
	firstToMoveWins  atomic.Uint32
	secondToMoveWins atomic.Uint32
}

func (vas *VersusArenaStats) Total() int {
	return vas.P1Wins() + vas.P2Wins() + vas.Draws()
}

func (vas *VersusArenaStats) P1Wins() int {
	return int(vas.p1Wins.Load())
}

func (vas *VersusArenaStats) P2Wins() int {
	return int(vas.p2Wins.Load())
}

func (vas *VersusArenaStats) Draws() int {
	return int(vas.draws.Load())
}

// Games won by the engine playing the first color
func (vas *VersusArenaStats) FirstToMoveWins() int {
	return int(vas.firstToMoveWins.Load())
}

func (vas *VersusArenaStats) SecondToMoveWins() int {
	return int(vas.secondToMoveWins.Load())
}

func (vas *VersusArenaStats) add(outcome GameOutcome) {
	switch outcome.Result {
	case VersusPl1Win:
		vas.p1Wins.Add(1)
	case VersusPl2Win:
		vas.p2Wins.Add(1)
	default:
		vas.draws.Add(1)
		return
	}
	if (outcome.Result == VersusPl1Win) == outcome.P1First {
		vas.firstToMoveWins.Add(1)
	} else {
		vas.secondToMoveWins.Add(1)
	}
}

type VersusWorkerInfo struct {
	WorkerID      int
	NGames        int
	FinishedGames int
	GameMoveNum   int
	Moves         []board.ColorMove
	P1Wins        int
	P2Wins        int
	Draws         int
	P1Name        string
	P2Name        string
	// Set in OnFinishedGame
	Outcome GameOutcome
}

type VersusSummaryInfo struct {
	TotalGames       int    `json:"total_games"`
	P1Wins           int    `json:"player1_wins"`
	P2Wins           int    `json:"player2_wins"`
	FirstToMoveWins  int    `json:"first_to_move_wins"`
	SecondToMoveWins int    `json:"second_to_move_wins"`
	Draws            int    `json:"draws"`
	Workers          int    `json:"workers"`
	Variant          string `json:"variant"`
	P1Name           string `json:"player1_name"`
	P2Name           string `json:"player2_name"`
}

// Result of a single game
type GameOutcome struct {
	Result VersusMatchResult
	// Whether player 1 played the first color
	P1First bool
	// Points of the colors of each engine
	P1Points int
	P2Points int
}

// Engine owning the color: player 1 owns the colors of even players,
// unless the players were switched for the game
func engineOf(v board.Variant, c board.Color, switched bool) int {
	engine := v.Player(c) % 2
	if switched {
		engine = 1 - engine
	}
	return engine
}

// Compare the points of the colors owned by each engine, the game must be over
func computeOutcome(bd *board.Board, switched bool) GameOutcome {
	if !bd.IsGameOver() {
		panic("computeOutcome: game not over")
	}

	var points [2]int
	for c := range bd.NuColors() {
		points[engineOf(bd.Variant(), board.Color(c), switched)] += bd.Points(board.Color(c))
	}

	outcome := GameOutcome{P1First: !switched, P1Points: points[0], P2Points: points[1]}
	switch {
	case points[0] > points[1]:
		outcome.Result = VersusPl1Win
	case points[0] < points[1]:
		outcome.Result = VersusPl2Win
	default:
		outcome.Result = VersusDraw
	}
	return outcome
}
