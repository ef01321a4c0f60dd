package bench

import (
	"github.com/rs/zerolog"
)

// Receives the progress of the arena. Methods are called from all
// worker goroutines, implementations must be safe for concurrent use.
type ListenerLike interface {
	OnGameStart(workerID int)
	OnMoveMade(info VersusWorkerInfo)
	OnFinishedGame(info VersusWorkerInfo)
	OnFinishedWork(info VersusWorkerInfo)
	Summary(info VersusSummaryInfo)
}

// Listener ignoring everything
type DefaultListener struct{}

func (DefaultListener) OnGameStart(int)                 {}
func (DefaultListener) OnMoveMade(VersusWorkerInfo)     {}
func (DefaultListener) OnFinishedGame(VersusWorkerInfo) {}
func (DefaultListener) OnFinishedWork(VersusWorkerInfo) {}
func (DefaultListener) Summary(VersusSummaryInfo)       {}

// Writes the finished games and the summary to a logger
type LogListener struct {
	DefaultListener
	logger zerolog.Logger
}

func NewLogListener(logger zerolog.Logger) *LogListener {
	return &LogListener{logger: logger}
}

func (l *LogListener) OnFinishedGame(info VersusWorkerInfo) {
	l.logger.Info().
		Int("worker", info.WorkerID).
		Int("game", info.FinishedGames+1).
		Int("moves", info.GameMoveNum).
		Stringer("winner", info.Outcome.Result).
		Int("p1-points", info.Outcome.P1Points).
		Int("p2-points", info.Outcome.P2Points).
		Bool("p1-first", info.Outcome.P1First).
		Msg("game-finished")
}

func (l *LogListener) OnFinishedWork(info VersusWorkerInfo) {
	l.logger.Debug().
		Int("worker", info.WorkerID).
		Int("games", info.NGames).
		Int("p1-wins", info.P1Wins).
		Int("p2-wins", info.P2Wins).
		Int("draws", info.Draws).
		Msg("worker-finished")
}

func (l *LogListener) Summary(info VersusSummaryInfo) {
	l.logger.Info().
		Str("variant", info.Variant).
		Str("p1", info.P1Name).
		Str("p2", info.P2Name).
		Int("games", info.TotalGames).
		Int("p1-wins", info.P1Wins).
		Int("p2-wins", info.P2Wins).
		Int("draws", info.Draws).
		Msg("arena-summary")
}
