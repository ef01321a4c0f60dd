package bench

import (
	"context"
	"fmt"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/IlikeChooros/go-pentobi/pkg/search"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

/*
Arena benchmark subpackage, allows to play a series of games between two
different search configurations.
*/

// Engine configuration playing in the arena
type Player struct {
	Name   string
	Params search.Params
	Budget search.Budget
}

type VersusArena struct {
	VersusArenaStats
	Player1  Player
	Player2  Player
	Variant  board.Variant
	NGames   int
	NThreads int
	registry *board.Registry
	logger   zerolog.Logger
}

func NewVersusArena(reg *board.Registry, v board.Variant, p1, p2 Player) *VersusArena {
	return &VersusArena{
		Player1:  p1,
		Player2:  p2,
		Variant:  v,
		NGames:   100,
		NThreads: 2,
		registry: reg,
		logger:   zerolog.Nop(),
	}
}

func (va *VersusArena) SetLogger(logger zerolog.Logger) *VersusArena {
	va.logger = logger
	return va
}

func (va *VersusArena) Setup(nGames, nThreads int) {
	va.NGames = nGames
	va.NThreads = max(nThreads, 1)
}

// Play the games, distributed equally between the worker goroutines.
// Player 1 plays the first color in every other game.
// Blocks until all games are finished or the context is cancelled.
func (va *VersusArena) Run(ctx context.Context, listener ListenerLike) (VersusSummaryInfo, error) {
	if listener == nil {
		listener = DefaultListener{}
	}

	g, ctx := errgroup.WithContext(ctx)
	nGames := va.NGames / va.NThreads
	rest := va.NGames % va.NThreads
	first := 0
	for id := range va.NThreads {
		n := nGames
		if id < rest {
			n++
		}
		start := first
		first += n
		g.Go(func() error {
			return va.worker(ctx, id, start, n, listener)
		})
	}
	err := g.Wait()

	summary := VersusSummaryInfo{
		TotalGames:       va.Total(),
		P1Wins:           va.P1Wins(),
		P2Wins:           va.P2Wins(),
		FirstToMoveWins:  va.FirstToMoveWins(),
		SecondToMoveWins: va.SecondToMoveWins(),
		Draws:            va.Draws(),
		Workers:          va.NThreads,
		Variant:          va.Variant.String(),
		P1Name:           va.Player1.Name,
		P2Name:           va.Player2.Name,
	}
	listener.Summary(summary)
	return summary, err
}

// Play games [start, start+nGames), each worker has its own engines
func (va *VersusArena) worker(ctx context.Context, id, start, nGames int, listener ListenerLike) error {
	engines := [2]*search.Search{
		search.New(va.Variant, va.Player1.Params),
		search.New(va.Variant, va.Player2.Params),
	}
	for _, e := range engines {
		e.SetLogger(va.logger.With().Int("worker", id).Logger())
	}
	var local VersusArenaStats

	for i := range nGames {
		switched := (start+i)%2 == 1
		listener.OnGameStart(id)
		game, err := va.playGame(ctx, engines, switched, func(moves []board.ColorMove) {
			listener.OnMoveMade(va.workerInfo(id, nGames, i, moves, &local))
		})
		if err != nil {
			return err
		}

		outcome := computeOutcome(game.board, switched)
		va.add(outcome)
		local.add(outcome)
		info := va.workerInfo(id, nGames, i, game.history, &local)
		info.Outcome = outcome
		listener.OnFinishedGame(info)
	}

	listener.OnFinishedWork(va.workerInfo(id, nGames, nGames, nil, &local))
	return nil
}

type playedGame struct {
	board   *board.Board
	history []board.ColorMove
}

// Play a single game until no color can move. Colors without moves pass
func (va *VersusArena) playGame(ctx context.Context, engines [2]*search.Search, switched bool, onMove func([]board.ColorMove)) (playedGame, error) {
	bd := board.New(va.registry, va.Variant)
	players := [2]*Player{&va.Player1, &va.Player2}
	var history []board.ColorMove

	for !bd.IsGameOver() {
		if err := ctx.Err(); err != nil {
			return playedGame{}, err
		}

		c := bd.ToPlay()
		if !bd.HasMoves(c) {
			bd.Play(board.Pass(c))
			continue
		}

		engine := engineOf(va.Variant, c, switched)
		mv, ok := engines[engine].Search(ctx, bd, c, players[engine].Budget)
		if !ok {
			if err := ctx.Err(); err != nil {
				return playedGame{}, err
			}
			return playedGame{}, fmt.Errorf("%s found no move for color %s", players[engine].Name, c)
		}
		if err := bd.PlayChecked(mv); err != nil {
			return playedGame{}, fmt.Errorf("%s: %w", players[engine].Name, err)
		}
		history = append(history, mv)
		onMove(history)
	}
	return playedGame{board: bd, history: history}, nil
}

func (va *VersusArena) workerInfo(id, nGames, finished int, moves []board.ColorMove, local *VersusArenaStats) VersusWorkerInfo {
	return VersusWorkerInfo{
		WorkerID:      id,
		NGames:        nGames,
		FinishedGames: finished,
		GameMoveNum:   len(moves),
		Moves:         moves,
		P1Wins:        local.P1Wins(),
		P2Wins:        local.P2Wins(),
		Draws:         local.Draws(),
		P1Name:        va.Player1.Name,
		P2Name:        va.Player2.Name,
	}
}
