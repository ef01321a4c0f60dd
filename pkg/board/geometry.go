package board

import (
	"sync"
)

// Dense index of an on-board point
type Point int16

const NullPoint Point = -1

func (p Point) IsNull() bool {
	return p < 0
}

// Board shape capability, implemented once per board shape and shared
// (read-only) by every board of the same size.
type Geometry interface {
	Width() int
	Height() int
	// Number of on-board points, points are numbered 0..Range()-1
	Range() int
	IsOnboard(x, y int) bool
	// Point at (x, y), NullPoint if off board
	Point(x, y int) Point
	Coords(p Point) (x, y int)
	// Edge neighbours of p
	Adjacent(p Point) []Point
	// Corner-only neighbours of p
	Diagonal(p Point) []Point
	// Point rotated by 180 degrees around the board center
	Rot180(p Point) Point
	// Point reflected on the main diagonal, NullPoint if the board isn't square
	Transpose(p Point) Point
}

type rectGeometry struct {
	width, height int
	adj           [][]Point
	diag          [][]Point
}

func newRectGeometry(width, height int) *rectGeometry {
	g := &rectGeometry{
		width:  width,
		height: height,
		adj:    make([][]Point, width*height),
		diag:   make([][]Point, width*height),
	}

	for y := range height {
		for x := range width {
			p := g.Point(x, y)
			for _, d := range [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}} {
				if q := g.Point(x+d[0], y+d[1]); !q.IsNull() {
					g.adj[p] = append(g.adj[p], q)
				}
			}
			for _, d := range [][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
				if q := g.Point(x+d[0], y+d[1]); !q.IsNull() {
					g.diag[p] = append(g.diag[p], q)
				}
			}
		}
	}
	return g
}

func (g *rectGeometry) Width() int  { return g.width }
func (g *rectGeometry) Height() int { return g.height }
func (g *rectGeometry) Range() int  { return g.width * g.height }

func (g *rectGeometry) IsOnboard(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *rectGeometry) Point(x, y int) Point {
	if !g.IsOnboard(x, y) {
		return NullPoint
	}
	return Point(y*g.width + x)
}

func (g *rectGeometry) Coords(p Point) (int, int) {
	return int(p) % g.width, int(p) / g.width
}

func (g *rectGeometry) Adjacent(p Point) []Point { return g.adj[p] }
func (g *rectGeometry) Diagonal(p Point) []Point { return g.diag[p] }

func (g *rectGeometry) Rot180(p Point) Point {
	x, y := g.Coords(p)
	return g.Point(g.width-1-x, g.height-1-y)
}

func (g *rectGeometry) Transpose(p Point) Point {
	x, y := g.Coords(p)
	return g.Point(y, x)
}

// Registry of geometries and move tables, every shape is constructed once and
// then shared by reference. Owned by the game session (CLI, arena, tests),
// never a package level singleton.
type Registry struct {
	mu     sync.Mutex
	rects  map[[2]int]*rectGeometry
	consts map[Variant]*BoardConst
}

func NewRegistry() *Registry {
	return &Registry{
		rects:  make(map[[2]int]*rectGeometry),
		consts: make(map[Variant]*BoardConst),
	}
}

// Rectangular geometry with given size
func (r *Registry) Geometry(width, height int) Geometry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rect(width, height)
}

func (r *Registry) rect(width, height int) *rectGeometry {
	key := [2]int{width, height}
	g, ok := r.rects[key]
	if !ok {
		g = newRectGeometry(width, height)
		r.rects[key] = g
	}
	return g
}

// Move table of given variant, built on first use
func (r *Registry) BoardConst(v Variant) *BoardConst {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Classic and Classic2 share the same board
	key := v
	if v == Classic2 {
		key = Classic
	}
	bc, ok := r.consts[key]
	if !ok {
		bc = newBoardConst(r.rect(v.Size()), NewPieceCatalog())
		r.consts[key] = bc
	}
	return bc
}
