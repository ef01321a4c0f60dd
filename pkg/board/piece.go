package board

import (
	"slices"

	"github.com/samber/lo"
)

type Piece uint8

const (
	Monomino  Piece = 0
	NullPiece Piece = 255
)

type CoordPoint struct {
	X, Y int
}

// One of the 8 transformations of the square grid (rotations and reflections)
type Transform int

const (
	TransfIdentity Transform = iota
	TransfRot90
	TransfRot180
	TransfRot270
	TransfRefl
	TransfReflRot90
	TransfReflRot180
	TransfReflRot270
	nuTransforms
)

func (t Transform) Apply(p CoordPoint) CoordPoint {
	if t >= TransfRefl {
		p.X = -p.X
		t -= TransfRefl
	}
	for range int(t) {
		p = CoordPoint{-p.Y, p.X}
	}
	return p
}

type PieceInfo struct {
	Name   string
	Points []CoordPoint
	// Normalized shape of each unique transform, transforms that
	// result in the same shape are merged into one equivalence class
	UniqTransforms []Transform
	Shapes         [][]CoordPoint
	// Maps each of the 8 transforms to its representative in UniqTransforms
	Equivalent [nuTransforms]Transform
}

func (pi *PieceInfo) Size() int {
	return len(pi.Points)
}

// Whether the transform produces a shape different from all transforms before it
func (pi *PieceInfo) IsUniq(t Transform) bool {
	return pi.Equivalent[t] == t
}

type PieceCatalog struct {
	pieces []PieceInfo
	byName map[string]Piece
}

// Standard set of 21 polyominoes, from the monomino to the 12 pentominoes
var standardPieces = []struct {
	name   string
	points []CoordPoint
}{
	{"1", []CoordPoint{{0, 0}}},
	{"2", []CoordPoint{{0, 0}, {1, 0}}},
	{"I3", []CoordPoint{{0, 0}, {1, 0}, {2, 0}}},
	{"V3", []CoordPoint{{0, 0}, {0, 1}, {1, 1}}},
	{"I4", []CoordPoint{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
	{"L4", []CoordPoint{{0, 0}, {0, 1}, {0, 2}, {1, 2}}},
	{"O", []CoordPoint{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
	{"T4", []CoordPoint{{0, 0}, {1, 0}, {2, 0}, {1, 1}}},
	{"Z4", []CoordPoint{{0, 0}, {1, 0}, {1, 1}, {2, 1}}},
	{"F", []CoordPoint{{1, 0}, {2, 0}, {0, 1}, {1, 1}, {1, 2}}},
	{"I5", []CoordPoint{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}},
	{"L5", []CoordPoint{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {1, 3}}},
	{"N", []CoordPoint{{1, 0}, {1, 1}, {0, 2}, {1, 2}, {0, 3}}},
	{"P", []CoordPoint{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}}},
	{"T5", []CoordPoint{{0, 0}, {1, 0}, {2, 0}, {1, 1}, {1, 2}}},
	{"U", []CoordPoint{{0, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}},
	{"V5", []CoordPoint{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 2}}},
	{"W", []CoordPoint{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {2, 2}}},
	{"X", []CoordPoint{{1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}}},
	{"Y", []CoordPoint{{1, 0}, {0, 1}, {1, 1}, {1, 2}, {1, 3}}},
	{"Z5", []CoordPoint{{0, 0}, {1, 0}, {1, 1}, {1, 2}, {2, 2}}},
}

func NewPieceCatalog() *PieceCatalog {
	catalog := &PieceCatalog{
		pieces: make([]PieceInfo, len(standardPieces)),
		byName: make(map[string]Piece, len(standardPieces)),
	}

	for i, def := range standardPieces {
		info := PieceInfo{Name: def.name, Points: def.points}
		for t := TransfIdentity; t < nuTransforms; t++ {
			shape := normalize(lo.Map(def.points, func(p CoordPoint, _ int) CoordPoint {
				return t.Apply(p)
			}))

			// Find the equivalent, already seen transform
			j := slices.IndexFunc(info.Shapes, func(s []CoordPoint) bool {
				return slices.Equal(s, shape)
			})
			if j >= 0 {
				info.Equivalent[t] = info.UniqTransforms[j]
				continue
			}
			info.Equivalent[t] = t
			info.UniqTransforms = append(info.UniqTransforms, t)
			info.Shapes = append(info.Shapes, shape)
		}
		catalog.pieces[i] = info
		catalog.byName[def.name] = Piece(i)
	}
	return catalog
}

// Shift the points, so that the minimal coordinates are 0, and sort them
func normalize(points []CoordPoint) []CoordPoint {
	minX := lo.MinBy(points, func(a, b CoordPoint) bool { return a.X < b.X }).X
	minY := lo.MinBy(points, func(a, b CoordPoint) bool { return a.Y < b.Y }).Y
	result := lo.Map(points, func(p CoordPoint, _ int) CoordPoint {
		return CoordPoint{p.X - minX, p.Y - minY}
	})
	slices.SortFunc(result, func(a, b CoordPoint) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	return result
}

func (c *PieceCatalog) NuPieces() int {
	return len(c.pieces)
}

func (c *PieceCatalog) Info(p Piece) *PieceInfo {
	return &c.pieces[p]
}

func (c *PieceCatalog) ByName(name string) (Piece, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Total number of squares of one full set of pieces
func (c *PieceCatalog) TotalSize() int {
	return lo.SumBy(c.pieces, func(p PieceInfo) int { return p.Size() })
}
