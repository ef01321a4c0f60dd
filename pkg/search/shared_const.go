package search

import (
	"slices"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/samber/lo"
)

// Data derived from the root position once per search, read by all
// threads without synchronization
type SharedConst struct {
	bc       *board.BoardConst
	nuColors int

	// Moves the color can't play anywhere in the searched subtree: the piece
	// is already placed, or a point of the move is forbidden at the root
	forbiddenAtRoot [board.MaxColors]*board.MoveMarker

	// Pieces considered in a position, indexed by the number of pieces on board
	pieceConsidered [][]bool
	considerAll     []bool

	// 180 degree rotation, then the reflections on both diagonals
	symmetries [3]symmetry
}

// Board symmetry together with the color each color is mapped to. The color
// map follows the starting points, a symmetry that doesn't map starting
// points onto starting points is not valid for the variant
type symmetry struct {
	points []board.Point
	colors [board.MaxColors]board.Color
	valid  bool
	move   func(board.Move) board.Move
}

func (sym *symmetry) color(c board.Color) board.Color {
	if c >= board.MaxColors {
		return c
	}
	return sym.colors[c]
}

func (sym *symmetry) mapColors(bd *board.Board) {
	sym.valid = !slices.Contains(sym.points, board.NullPoint)
	for c := range board.MaxColors {
		sym.colors[c] = board.NoColor
		if c >= bd.NuColors() || len(bd.StartingPoints(board.Color(c))) == 0 {
			continue
		}
		start := sym.points[bd.StartingPoints(board.Color(c))[0]]
		for d := range bd.NuColors() {
			if points := bd.StartingPoints(board.Color(d)); len(points) > 0 && points[0] == start {
				sym.colors[c] = board.Color(d)
			}
		}
		if sym.colors[c] == board.NoColor {
			sym.valid = false
		}
	}
}

// Every color is mapped to itself
func (sym *symmetry) keepsColors(nuColors int) bool {
	for c := range nuColors {
		if sym.colors[c] != board.Color(c) {
			return false
		}
	}
	return true
}

// Whether bd is mapped onto itself: every point takes the mapped color of its
// image and mapped colors have the same pieces left
func (sym *symmetry) isInvariant(bd *board.Board) bool {
	if !sym.valid {
		return false
	}
	for p, q := range sym.points {
		if sym.color(bd.PointState(board.Point(p))) != bd.PointState(q) {
			return false
		}
	}
	for c := range bd.NuColors() {
		mapped := sym.colors[c]
		for piece := range bd.Const().NuPieces() {
			if bd.IsPieceLeft(board.Color(c), board.Piece(piece)) != bd.IsPieceLeft(mapped, board.Piece(piece)) {
				return false
			}
		}
	}
	return true
}

func NewSharedConst() *SharedConst {
	return &SharedConst{}
}

// Precompute the tables for a search from the position bd
func (sc *SharedConst) OnStartSearch(bd *board.Board, filters []PieceFilter) {
	bc := bd.Const()
	if sc.bc != bc {
		sc.bc = bc
		for c := range board.MaxColors {
			sc.forbiddenAtRoot[c] = board.NewMoveMarker(bc.NuMoves())
		}
		geo := bc.Geometry()
		antiTranspose := func(p board.Point) board.Point {
			if q := geo.Transpose(p); !q.IsNull() {
				return geo.Rot180(q)
			}
			return board.NullPoint
		}
		for i, f := range []func(board.Point) board.Point{geo.Rot180, geo.Transpose, antiTranspose} {
			sc.symmetries[i] = symmetry{
				points: make([]board.Point, geo.Range()),
				move: func(mv board.Move) board.Move {
					return bc.TransformMove(mv, f)
				},
			}
			for p := range sc.symmetries[i].points {
				sc.symmetries[i].points[p] = f(board.Point(p))
			}
		}
	}
	sc.nuColors = bd.NuColors()
	for i := range sc.symmetries {
		sc.symmetries[i].mapColors(bd)
	}

	for c := range board.MaxColors {
		marker := sc.forbiddenAtRoot[c]
		marker.ClearAll()
		if c >= sc.nuColors {
			continue
		}
		for mv := range board.Move(bc.NuMoves()) {
			info := bc.MoveInfo(mv)
			if !bd.IsPieceLeft(board.Color(c), info.Piece) || bd.IsForbiddenMove(board.Color(c), mv) {
				marker.Set(mv)
			}
		}
	}

	nuPieces := bc.NuPieces()
	maxGameMoves := sc.nuColors * nuPieces
	sc.pieceConsidered = sc.pieceConsidered[:0]
	for nuOnboard := range maxGameMoves + 1 {
		sc.pieceConsidered = append(sc.pieceConsidered,
			piecesConsidered(bc.Catalog(), nuOnboard, sc.nuColors, filters))
	}
	sc.considerAll = lo.Times(nuPieces, func(int) bool { return true })
}

// Apply the first filter matching the number of pieces on board
func piecesConsidered(catalog *board.PieceCatalog, nuOnboard, nuColors int, filters []PieceFilter) []bool {
	considered := lo.Times(catalog.NuPieces(), func(int) bool { return true })
	f, ok := lo.Find(filters, func(f PieceFilter) bool {
		return nuOnboard < f.BeforeRounds*nuColors
	})
	if !ok {
		return considered
	}

	if len(f.Only) > 0 {
		clear(considered)
		for _, name := range f.Only {
			if piece, ok := catalog.ByName(name); ok {
				considered[piece] = true
			}
		}
		return considered
	}
	for piece := range considered {
		if catalog.Info(board.Piece(piece)).Size() < f.MinSize {
			considered[piece] = false
		}
	}
	return considered
}

func (sc *SharedConst) ForbiddenAtRoot(c board.Color) *board.MoveMarker {
	return sc.forbiddenAtRoot[c]
}

// Pieces considered when nuOnboard pieces are on the board
func (sc *SharedConst) IsPieceConsidered(nuOnboard int) []bool {
	return sc.pieceConsidered[min(nuOnboard, len(sc.pieceConsidered)-1)]
}

// Fallback, when none of the considered pieces can be played
func (sc *SharedConst) IsPieceConsideredAll() []bool {
	return sc.considerAll
}

func (sc *SharedConst) SymmetricPoint(p board.Point) board.Point {
	return sc.symmetries[0].points[p]
}

// Color occupying the rotated starting point of c
func (sc *SharedConst) SymmetricColor(c board.Color) board.Color {
	return sc.symmetries[0].color(c)
}

// Whether the 180 degree rotation maps the position onto itself, with the
// colors exchanged along their starting points
func (sc *SharedConst) IsSymmetricPosition(bd *board.Board) bool {
	return sc.symmetries[0].isInvariant(bd)
}

// Move maps of the symmetries that leave bd unchanged without exchanging any
// colors. Moves mapped onto each other lead to equivalent positions
func (sc *SharedConst) EquivalentMoveMaps(bd *board.Board) []func(board.Move) board.Move {
	var maps []func(board.Move) board.Move
	for i := range sc.symmetries {
		sym := &sc.symmetries[i]
		if sym.keepsColors(bd.NuColors()) && sym.isInvariant(bd) {
			maps = append(maps, sym.move)
		}
	}
	return maps
}
