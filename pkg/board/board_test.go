package board

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestPieceCatalog(t *testing.T) {
	is := is.New(t)
	catalog := NewPieceCatalog()

	is.Equal(catalog.NuPieces(), 21)
	is.Equal(catalog.TotalSize(), 89)

	total := 0
	for p := range catalog.NuPieces() {
		total += len(catalog.Info(Piece(p)).UniqTransforms)
	}
	is.Equal(total, 91)

	for name, want := range map[string]int{"1": 1, "2": 2, "O": 1, "X": 1, "F": 8, "T5": 4, "I5": 2} {
		p, ok := catalog.ByName(name)
		is.True(ok)
		is.Equal(len(catalog.Info(p).UniqTransforms), want) // unique transforms
	}

	f, _ := catalog.ByName("F")
	info := catalog.Info(f)
	for tr := TransfIdentity; tr < nuTransforms; tr++ {
		is.True(info.IsUniq(info.Equivalent[tr]))
	}
}

func TestBoardConst(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()
	bc := reg.BoardConst(Duo)

	is.True(reg.BoardConst(Duo) == bc)
	is.True(reg.BoardConst(Classic) == reg.BoardConst(Classic2))

	// Monomino fits on every point
	is.Equal(len(bc.MovesAt(Monomino, 0)), 1)
	for mv := range Move(bc.NuMoves()) {
		info := bc.MoveInfo(mv)
		found, ok := bc.FindMove(info.Points)
		is.True(ok)
		is.Equal(found, mv)
	}

	start := reg.Geometry(14, 14).Point(4, 4)
	mono, ok := bc.FindMove([]Point{start})
	is.True(ok)
	is.Equal(len(bc.MoveInfo(mono).AdjPoints), 4)
	is.Equal(len(bc.MoveInfo(mono).AttachPoints), 4)
	is.Equal(bc.Rot180(bc.Rot180(mono)), mono)

	// Both starting points lie on the main diagonal
	opposite, ok := bc.FindMove([]Point{reg.Geometry(14, 14).Point(9, 9)})
	is.True(ok)
	is.Equal(bc.Rot180(mono), opposite)
	is.Equal(bc.Transpose(mono), mono)
	for mv := range Move(bc.NuMoves()) {
		is.Equal(bc.Transpose(bc.Transpose(mv)), mv)
	}
}

func TestFirstMoveCoversStartingPoint(t *testing.T) {
	is := is.New(t)
	bd := New(NewRegistry(), Duo)
	is.NoErr(bd.SetPiecesLeft(0, []Piece{Monomino}))

	moves := bd.AppendLegalMoves(0, nil, nil, nil, nil)
	is.Equal(len(moves), 1)
	is.Equal(bd.Const().MoveInfo(moves[0]).Points, bd.StartingPoints(0))
	is.True(bd.HasMoves(1))

	// Every first move of a full set covers the starting point
	for _, mv := range bd.AppendLegalMoves(1, nil, nil, nil, nil) {
		covers := false
		for _, p := range bd.Const().MoveInfo(mv).Points {
			covers = covers || p == bd.StartingPoints(1)[0]
		}
		is.True(covers)
	}
}

func TestPlayUpdatesForbiddenAndAttach(t *testing.T) {
	is := is.New(t)
	bd := New(NewRegistry(), Duo)
	geo := bd.Geometry()
	start := bd.StartingPoints(0)[0]
	mono, _ := bd.Const().FindMove([]Point{start})

	is.NoErr(bd.PlayChecked(ColorMove{Color: 0, Move: mono}))
	is.Equal(bd.ToPlay(), Color(1))
	is.True(!bd.IsPieceLeft(0, Monomino))
	is.True(!bd.IsFirstPiece(0))

	x, y := geo.Coords(start)
	is.True(bd.IsForbidden(0, start))
	is.True(bd.IsForbidden(1, start))
	is.True(bd.IsForbidden(0, geo.Point(x+1, y)))
	is.True(!bd.IsForbidden(1, geo.Point(x+1, y)))
	is.True(bd.IsAttachPoint(0, geo.Point(x+1, y+1)))
	is.Equal(len(bd.AttachPoints(0)), 4)

	// The same piece can't be played twice
	other, _ := bd.Const().FindMove([]Point{geo.Point(x+1, y+1)})
	err := bd.PlayChecked(ColorMove{Color: 0, Move: other})
	is.True(errors.Is(err, ErrIllegalMove))
}

func TestUndoRestoresPosition(t *testing.T) {
	is := is.New(t)
	bd := New(NewRegistry(), Duo)
	before := bd.Hash()

	moves := bd.AppendLegalMoves(0, nil, nil, nil, nil)
	is.True(len(moves) > 0)
	bd.Play(ColorMove{Color: 0, Move: moves[0]})
	is.True(bd.Hash() != before)

	is.True(bd.Undo())
	is.Equal(bd.Hash(), before)
	is.Equal(bd.NuMoves(), 0)
	is.True(!bd.Undo())
}

func TestCopyFrom(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()
	bd := New(reg, Duo)
	bd.Play(ColorMove{Color: 0, Move: bd.AppendLegalMoves(0, nil, nil, nil, nil)[3]})
	bd.Play(Pass(1))

	cp := New(reg, Classic)
	cp.CopyFrom(bd)
	is.Equal(cp.Hash(), bd.Hash())
	is.Equal(cp.History(), bd.History())
	is.Equal(cp.Variant(), Duo)
	is.Equal(len(cp.AppendLegalMoves(0, nil, nil, nil, nil)), len(bd.AppendLegalMoves(0, nil, nil, nil, nil)))
}

func TestSetupOnlyBeforeFirstMove(t *testing.T) {
	is := is.New(t)
	bd := New(NewRegistry(), Duo)
	is.NoErr(bd.SetPiecesLeft(1, nil))
	is.True(!bd.HasMoves(1))

	bd.Play(Pass(0))
	is.Equal(bd.SetPiecesLeft(0, nil), ErrSetup)
}

func TestScoring(t *testing.T) {
	is := is.New(t)
	bd := New(NewRegistry(), Duo)
	is.NoErr(bd.SetPiecesLeft(0, []Piece{Monomino}))
	is.NoErr(bd.SetPiecesLeft(1, nil))

	moves := bd.AppendLegalMoves(0, nil, nil, nil, nil)
	bd.Play(ColorMove{Color: 0, Move: moves[0]})
	is.Equal(bd.Points(0), 1+BonusAllPieces+BonusMonomino)
	is.Equal(bd.Result(), []float64{1, 0})
	is.True(bd.IsGameOver())
}

func TestResultClassic2(t *testing.T) {
	is := is.New(t)
	bd := New(NewRegistry(), Classic2)
	is.Equal(bd.Result(), []float64{0.5, 0.5, 0.5, 0.5})

	moves := bd.AppendLegalMoves(2, nil, nil, nil, nil)
	bd.Play(ColorMove{Color: 2, Move: moves[0]})
	// Colors 1 and 3 are played by the first player
	is.Equal(bd.Result(), []float64{1, 0, 1, 0})
}

func TestNotation(t *testing.T) {
	is := is.New(t)
	bd := New(NewRegistry(), Duo)
	geo := bd.Geometry()

	is.Equal(FormatPoint(geo, bd.StartingPoints(0)[0]), "e10")
	p, err := ParsePoint(geo, "a1")
	is.NoErr(err)
	is.Equal(p, geo.Point(0, 13))

	mv, err := bd.Const().ParseMove("f10,e10")
	is.NoErr(err)
	is.Equal(bd.MoveString(mv), "e10,f10")

	cm, err := bd.ParseColorMove("2 pass")
	is.NoErr(err)
	is.Equal(cm, Pass(1))

	_, err = bd.Const().ParseMove("e10,g10")
	is.True(errors.Is(err, ErrInvalidMove))
	_, err = bd.Const().ParseMove("z99")
	is.True(errors.Is(err, ErrInvalidMove))
}
