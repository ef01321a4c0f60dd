package search

import (
	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/IlikeChooros/go-pentobi/pkg/mcts"
	"golang.org/x/exp/rand"
)

// Playout weight of a move by the size of its piece
var sizeWeight = [board.MaxPieceSize + 1]float64{0, 1, 1.5, 3, 6, 10}

// Simulation state of a single search thread, plays the moves of the
// tree part and the playout on a private copy of the root position
type State struct {
	sc     *SharedConst
	root   *board.Board
	toPlay board.Color

	bd      *board.Board
	rng     *rand.Rand
	moves   []board.ColorMove
	nuTree  int
	buf     []board.Move
	weights []float64
	scratch *board.MoveMarker
	// nil disables the last good reply heuristic
	lgr *LastGoodReply
}

var _ mcts.GameOperations[board.ColorMove] = (*State)(nil)

// New state searching the root position, with toPlay to move first
func NewState(sc *SharedConst, root *board.Board, toPlay board.Color, seed uint64) *State {
	bd := &board.Board{}
	bd.CopyFrom(root)
	return &State{
		sc:      sc,
		root:    root,
		toPlay:  toPlay,
		bd:      bd,
		rng:     rand.New(rand.NewSource(seed)),
		scratch: board.NewMoveMarker(root.Const().NuMoves()),
	}
}

// Try the replies of the table first in the playouts, and store the
// replies of the finished simulations in it
func (s *State) SetLastGoodReply(lgr *LastGoodReply) {
	s.lgr = lgr
}

func (s *State) Board() *board.Board {
	return s.bd
}

func (s *State) StartSimulation() {
	s.bd.CopyFrom(s.root)
	s.bd.SetToPlay(s.toPlay)
	s.moves = s.moves[:0]
	s.nuTree = 0
}

// Colors without moves before the mover pass implicitly
func (s *State) PlayInTree(cm board.ColorMove) {
	s.bd.Play(cm)
	s.moves = append(s.moves, cm)
	s.nuTree++
}

// Moves of the first color, starting from the one to play, that has any.
// At the root only the color to play is considered.
func (s *State) GenChildren(dst []board.ColorMove) []board.ColorMove {
	c := s.bd.ToPlay()
	nuColors := s.bd.NuColors()
	for range nuColors {
		s.buf = s.legalMoves(c, s.buf[:0])
		if len(s.buf) > 0 {
			for _, mv := range s.buf {
				dst = append(dst, board.ColorMove{Color: c, Move: mv})
			}
			return dst
		}
		if s.nuTree == 0 {
			break
		}
		c = c.Next(nuColors)
	}
	return dst
}

// Legal moves of the color, restricted to the considered pieces,
// or all legal moves if none of them can be played
func (s *State) legalMoves(c board.Color, dst []board.Move) []board.Move {
	skip := s.sc.ForbiddenAtRoot(c)
	considered := s.sc.IsPieceConsidered(s.bd.NuOnboardPieces())
	dst = s.bd.AppendLegalMoves(c, dst, considered, skip, s.scratch)
	if len(dst) == 0 {
		dst = s.bd.AppendLegalMoves(c, dst, s.sc.IsPieceConsideredAll(), skip, s.scratch)
	}
	return dst
}

// Play until all colors pass in a row
func (s *State) Playout() {
	nuColors := s.bd.NuColors()
	nuPasses := 0
	for nuPasses < nuColors {
		c := s.bd.ToPlay()
		s.buf = s.legalMoves(c, s.buf[:0])
		if len(s.buf) == 0 {
			s.bd.Play(board.Pass(c))
			nuPasses++
			continue
		}
		mv := s.lastGoodReply(c)
		if mv == board.NullMove {
			mv = s.selectMove(c, s.buf)
		}
		cm := board.ColorMove{Color: c, Move: mv}
		s.bd.Play(cm)
		s.moves = append(s.moves, cm)
		nuPasses = 0
	}
}

// Move of the playout policy for the color to play at the root
func (s *State) RootPlayoutMove() (board.ColorMove, bool) {
	s.StartSimulation()
	c := s.bd.ToPlay()
	s.buf = s.legalMoves(c, s.buf[:0])
	if len(s.buf) == 0 {
		return board.ColorMove{}, false
	}
	return board.ColorMove{Color: c, Move: s.selectMove(c, s.buf)}, true
}

// Stored reply to the last move, if c can play it, otherwise NullMove
func (s *State) lastGoodReply(c board.Color) board.Move {
	if s.lgr == nil || len(s.moves) == 0 {
		return board.NullMove
	}
	reply := s.lgr.Get(c, s.moves[len(s.moves)-1].Move)
	if !reply.IsRegular() || s.sc.ForbiddenAtRoot(c).IsSet(reply) {
		return board.NullMove
	}
	considered := s.sc.IsPieceConsidered(s.bd.NuOnboardPieces())
	if !considered[s.bd.Const().MoveInfo(reply).Piece] || !s.bd.IsLegal(c, reply) {
		return board.NullMove
	}
	return reply
}

// Random move, larger pieces and moves creating more attach points are preferred
func (s *State) selectMove(c board.Color, moves []board.Move) board.Move {
	bc := s.bd.Const()
	s.weights = s.weights[:0]
	total := 0.0
	for _, mv := range moves {
		info := bc.MoveInfo(mv)
		newAttach := 0
		for _, p := range info.AttachPoints {
			if !s.bd.IsForbidden(c, p) && !s.bd.IsAttachPoint(c, p) {
				newAttach++
			}
		}
		w := sizeWeight[len(info.Points)] * (1 + float64(newAttach)/4)
		total += w
		s.weights = append(s.weights, w)
	}

	r := s.rng.Float64() * total
	for i, w := range s.weights {
		if r < w {
			return moves[i]
		}
		r -= w
	}
	return moves[len(moves)-1]
}

// Result for every color, padded to board.MaxColors values
func (s *State) Evaluate() []float64 {
	values := make([]float64, board.MaxColors)
	copy(values, s.bd.Result())
	if s.lgr != nil {
		s.lgr.Update(s.moves, values)
	}
	return values
}

func (s *State) Moves() []board.ColorMove {
	return s.moves
}
