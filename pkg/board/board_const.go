package board

import (
	"slices"
)

// Maximum number of squares of a piece
const MaxPieceSize = 5

type MoveInfo struct {
	Piece     Piece
	Transform Transform
	// Sorted points covered by the piece
	Points []Point
	// Edge neighbours of the piece, not covered by it
	AdjPoints []Point
	// Corner neighbours of the piece, that don't touch it by an edge
	AttachPoints []Point
}

type moveKey [MaxPieceSize]Point

func makeMoveKey(points []Point) (moveKey, bool) {
	var key moveKey
	if len(points) == 0 || len(points) > MaxPieceSize {
		return key, false
	}
	sorted := slices.Clone(points)
	slices.Sort(sorted)
	for i := range key {
		key[i] = NullPoint
	}
	copy(key[:], sorted)
	return key, true
}

// Read-only table of all piece placements on a geometry, shared by all
// boards of the same variant
type BoardConst struct {
	geo     Geometry
	catalog *PieceCatalog
	moves   []MoveInfo
	// movesAt[piece][point] lists the moves of piece covering point
	movesAt [][][]Move
	lookup  map[moveKey]Move
}

func newBoardConst(geo Geometry, catalog *PieceCatalog) *BoardConst {
	bc := &BoardConst{
		geo:     geo,
		catalog: catalog,
		movesAt: make([][][]Move, catalog.NuPieces()),
		lookup:  make(map[moveKey]Move),
	}

	for piece := range catalog.NuPieces() {
		bc.movesAt[piece] = make([][]Move, geo.Range())
		info := catalog.Info(Piece(piece))
		for i, shape := range info.Shapes {
			for y := range geo.Height() {
				for x := range geo.Width() {
					bc.addMove(Piece(piece), info.UniqTransforms[i], shape, x, y)
				}
			}
		}
	}
	return bc
}

func (bc *BoardConst) addMove(piece Piece, t Transform, shape []CoordPoint, x, y int) {
	points := make([]Point, 0, len(shape))
	for _, c := range shape {
		p := bc.geo.Point(x+c.X, y+c.Y)
		if p.IsNull() {
			return
		}
		points = append(points, p)
	}
	slices.Sort(points)

	mv := Move(len(bc.moves))
	info := MoveInfo{Piece: piece, Transform: t, Points: points}
	inPiece := func(q Point) bool { return slices.Contains(points, q) }
	for _, p := range points {
		for _, q := range bc.geo.Adjacent(p) {
			if !inPiece(q) && !slices.Contains(info.AdjPoints, q) {
				info.AdjPoints = append(info.AdjPoints, q)
			}
		}
	}
	for _, p := range points {
		for _, q := range bc.geo.Diagonal(p) {
			if !inPiece(q) && !slices.Contains(info.AdjPoints, q) &&
				!slices.Contains(info.AttachPoints, q) {
				info.AttachPoints = append(info.AttachPoints, q)
			}
		}
	}

	bc.moves = append(bc.moves, info)
	for _, p := range points {
		bc.movesAt[piece][p] = append(bc.movesAt[piece][p], mv)
	}
	key, _ := makeMoveKey(points)
	bc.lookup[key] = mv
}

func (bc *BoardConst) Geometry() Geometry {
	return bc.geo
}

func (bc *BoardConst) Catalog() *PieceCatalog {
	return bc.catalog
}

// Total number of placements of all pieces
func (bc *BoardConst) NuMoves() int {
	return len(bc.moves)
}

func (bc *BoardConst) NuPieces() int {
	return bc.catalog.NuPieces()
}

func (bc *BoardConst) MoveInfo(mv Move) *MoveInfo {
	return &bc.moves[mv]
}

// Moves of the piece that cover the point
func (bc *BoardConst) MovesAt(piece Piece, p Point) []Move {
	return bc.movesAt[piece][p]
}

// Move covering exactly the given points, in any order
func (bc *BoardConst) FindMove(points []Point) (Move, bool) {
	key, ok := makeMoveKey(points)
	if !ok {
		return NullMove, false
	}
	mv, ok := bc.lookup[key]
	return mv, ok
}

// Move rotated by 180 degrees around the board center
func (bc *BoardConst) Rot180(mv Move) Move {
	return bc.TransformMove(mv, bc.geo.Rot180)
}

// Move reflected on the main diagonal
func (bc *BoardConst) Transpose(mv Move) Move {
	return bc.TransformMove(mv, bc.geo.Transpose)
}

// Move with every point mapped by f. Non regular moves are returned
// unchanged, NullMove if a mapped point is off board
func (bc *BoardConst) TransformMove(mv Move, f func(Point) Point) Move {
	if !mv.IsRegular() {
		return mv
	}
	info := &bc.moves[mv]
	points := make([]Point, len(info.Points))
	for i, p := range info.Points {
		if points[i] = f(p); points[i].IsNull() {
			return NullMove
		}
	}
	mapped, ok := bc.FindMove(points)
	if !ok {
		return NullMove
	}
	return mapped
}
