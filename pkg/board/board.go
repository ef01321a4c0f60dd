package board

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrSetup       = errors.New("setup can be changed only before the first move")
)

// Bonus points for placing all pieces, and an additional bonus
// if the last placed piece was the monomino
const (
	BonusAllPieces = 15
	BonusMonomino  = 5
)

// Starting position of a game: pieces placed before the first move,
// pieces available to each color and the color to play
type Setup struct {
	Placements [MaxColors][]Move
	PiecesLeft [MaxColors][]bool
	ToPlay     Color
}

func (s *Setup) Equal(o *Setup) bool {
	if s.ToPlay != o.ToPlay {
		return false
	}
	for c := range MaxColors {
		if !slices.Equal(s.Placements[c], o.Placements[c]) ||
			!slices.Equal(s.PiecesLeft[c], o.PiecesLeft[c]) {
			return false
		}
	}
	return true
}

func (s *Setup) clone() Setup {
	var r Setup
	r.ToPlay = s.ToPlay
	for c := range MaxColors {
		r.Placements[c] = slices.Clone(s.Placements[c])
		r.PiecesLeft[c] = slices.Clone(s.PiecesLeft[c])
	}
	return r
}

type Board struct {
	variant  Variant
	bc       *BoardConst
	geo      Geometry
	nuColors int

	setup   Setup
	history []ColorMove
	toPlay  Color

	occupied   []Color
	forbidden  [MaxColors][]bool
	isAttach   [MaxColors][]bool
	attach     [MaxColors][]Point
	piecesLeft [MaxColors][]bool
	nuLeft     [MaxColors]int
	nuOnboard  [MaxColors]int
	squares    [MaxColors]int
	lastPiece  [MaxColors]Piece
	starting   [MaxColors][]Point
}

// New empty board of the variant, the move table is taken from the registry
func New(reg *Registry, v Variant) *Board {
	bc := reg.BoardConst(v)
	geo := bc.Geometry()
	b := &Board{
		variant:  v,
		bc:       bc,
		geo:      geo,
		nuColors: v.NuColors(),
		occupied: make([]Color, geo.Range()),
	}

	for c := range MaxColors {
		b.forbidden[c] = make([]bool, geo.Range())
		b.isAttach[c] = make([]bool, geo.Range())
		b.piecesLeft[c] = make([]bool, bc.NuPieces())
		b.setup.PiecesLeft[c] = slices.Repeat([]bool{true}, bc.NuPieces())
	}
	for c, xy := range v.startingCoords() {
		b.starting[c] = []Point{geo.Point(xy[0], xy[1])}
	}
	b.reset()
	return b
}

// Restore the setup position
func (b *Board) reset() {
	for i := range b.occupied {
		b.occupied[i] = NoColor
	}
	for c := range MaxColors {
		clear(b.forbidden[c])
		clear(b.isAttach[c])
		b.attach[c] = b.attach[c][:0]
		copy(b.piecesLeft[c], b.setup.PiecesLeft[c])
		b.nuLeft[c] = 0
		for _, left := range b.piecesLeft[c] {
			if left {
				b.nuLeft[c]++
			}
		}
		b.nuOnboard[c] = 0
		b.squares[c] = 0
		b.lastPiece[c] = NullPiece
	}
	for c := range b.nuColors {
		for _, mv := range b.setup.Placements[c] {
			b.place(Color(c), mv)
		}
	}
	b.toPlay = b.setup.ToPlay
}

func (b *Board) Variant() Variant               { return b.variant }
func (b *Board) Const() *BoardConst             { return b.bc }
func (b *Board) Geometry() Geometry             { return b.geo }
func (b *Board) NuColors() int                  { return b.nuColors }
func (b *Board) ToPlay() Color                  { return b.toPlay }
func (b *Board) SetToPlay(c Color)              { b.toPlay = c }
func (b *Board) History() []ColorMove           { return b.history }
func (b *Board) NuMoves() int                   { return len(b.history) }
func (b *Board) Setup() *Setup                  { return &b.setup }
func (b *Board) StartingPoints(c Color) []Point { return b.starting[c] }

// Replace the setup, only allowed before the first move
func (b *Board) SetSetup(s Setup) error {
	if len(b.history) > 0 {
		return ErrSetup
	}
	next := s.clone()
	for c := range MaxColors {
		if next.PiecesLeft[c] == nil {
			next.PiecesLeft[c] = slices.Repeat([]bool{true}, b.bc.NuPieces())
		} else if len(next.PiecesLeft[c]) != b.bc.NuPieces() {
			return fmt.Errorf("setup of color %s: %d piece flags, expected %d",
				Color(c), len(next.PiecesLeft[c]), b.bc.NuPieces())
		}
	}
	b.setup = next
	b.reset()
	return nil
}

// Restrict the pieces available to the color, only allowed before the first move
func (b *Board) SetPiecesLeft(c Color, pieces []Piece) error {
	s := b.setup.clone()
	s.PiecesLeft[c] = make([]bool, b.bc.NuPieces())
	for _, p := range pieces {
		s.PiecesLeft[c][p] = true
	}
	return b.SetSetup(s)
}

func (b *Board) Play(cm ColorMove) {
	if cm.Move.IsRegular() {
		b.place(cm.Color, cm.Move)
	}
	b.history = append(b.history, cm)
	b.toPlay = cm.Color.Next(b.nuColors)
}

// Play the move after checking its legality
func (b *Board) PlayChecked(cm ColorMove) error {
	if int(cm.Color) >= b.nuColors {
		return fmt.Errorf("%w: no color %s in %s", ErrIllegalMove, cm.Color, b.variant)
	}
	if cm.Move.IsRegular() && !b.IsLegal(cm.Color, cm.Move) {
		return fmt.Errorf("%w: %s %s", ErrIllegalMove, cm.Color, b.MoveString(cm.Move))
	}
	b.Play(cm)
	return nil
}

// Take back the last move
func (b *Board) Undo() bool {
	if len(b.history) == 0 {
		return false
	}
	moves := slices.Clone(b.history[:len(b.history)-1])
	b.history = b.history[:0]
	b.reset()
	for _, cm := range moves {
		b.Play(cm)
	}
	return true
}

func (b *Board) place(c Color, mv Move) {
	info := b.bc.MoveInfo(mv)
	for _, p := range info.Points {
		b.occupied[p] = c
		for col := range b.nuColors {
			b.forbidden[col][p] = true
		}
	}
	for _, p := range info.AdjPoints {
		b.forbidden[c][p] = true
	}
	for _, p := range info.AttachPoints {
		if !b.forbidden[c][p] && !b.isAttach[c][p] {
			b.isAttach[c][p] = true
			b.attach[c] = append(b.attach[c], p)
		}
	}
	if b.piecesLeft[c][info.Piece] {
		b.piecesLeft[c][info.Piece] = false
		b.nuLeft[c]--
	}
	b.nuOnboard[c]++
	b.squares[c] += len(info.Points)
	b.lastPiece[c] = info.Piece
}

// Whether the color may not place a piece on the point, either because it
// is occupied or because it touches a piece of the color along an edge
func (b *Board) IsForbidden(c Color, p Point) bool {
	return b.forbidden[c][p]
}

// Whether any point of the move is forbidden for the color
func (b *Board) IsForbiddenMove(c Color, mv Move) bool {
	for _, p := range b.bc.MoveInfo(mv).Points {
		if b.forbidden[c][p] {
			return true
		}
	}
	return false
}

func (b *Board) IsPieceLeft(c Color, piece Piece) bool {
	return b.piecesLeft[c][piece]
}

func (b *Board) PiecesLeft(c Color) []Piece {
	pieces := make([]Piece, 0, b.nuLeft[c])
	for p, left := range b.piecesLeft[c] {
		if left {
			pieces = append(pieces, Piece(p))
		}
	}
	return pieces
}

func (b *Board) NuPiecesLeft(c Color) int {
	return b.nuLeft[c]
}

// Candidate points for the next piece of the color, the list may contain
// points that have become forbidden since
func (b *Board) AttachPoints(c Color) []Point {
	return b.attach[c]
}

func (b *Board) IsAttachPoint(c Color, p Point) bool {
	return b.isAttach[c][p] && !b.forbidden[c][p]
}

func (b *Board) IsFirstPiece(c Color) bool {
	return b.nuOnboard[c] == 0
}

// Number of pieces on the board of all colors
func (b *Board) NuOnboardPieces() int {
	n := 0
	for c := range b.nuColors {
		n += b.nuOnboard[c]
	}
	return n
}

func (b *Board) PointState(p Point) Color {
	return b.occupied[p]
}

func (b *Board) IsLegal(c Color, mv Move) bool {
	info := b.bc.MoveInfo(mv)
	if !b.piecesLeft[c][info.Piece] || b.IsForbiddenMove(c, mv) {
		return false
	}
	if b.IsFirstPiece(c) {
		for _, p := range info.Points {
			if slices.Contains(b.starting[c], p) {
				return true
			}
		}
		return false
	}
	for _, p := range info.Points {
		if b.isAttach[c][p] {
			return true
		}
	}
	return false
}

// Append the legal moves of the color to dst. Pieces with considered[piece]
// false are skipped (nil considers all pieces), as are moves set in skip.
// The scratch marker must be clear, and is cleared again on return.
func (b *Board) AppendLegalMoves(c Color, dst []Move, considered []bool, skip, scratch *MoveMarker) []Move {
	b.forEachLegalMove(c, considered, skip, scratch, func(mv Move) bool {
		dst = append(dst, mv)
		return true
	})
	return dst
}

func (b *Board) HasMoves(c Color) bool {
	found := false
	b.forEachLegalMove(c, nil, nil, nil, func(Move) bool {
		found = true
		return false
	})
	return found
}

func (b *Board) forEachLegalMove(c Color, considered []bool, skip, scratch *MoveMarker, fn func(Move) bool) {
	if scratch == nil {
		scratch = NewMoveMarker(b.bc.NuMoves())
	}
	defer scratch.ClearAll()

	candidates := b.attach[c]
	if b.IsFirstPiece(c) {
		candidates = b.starting[c]
	}
	for _, p := range candidates {
		if b.forbidden[c][p] {
			continue
		}
		for piece, left := range b.piecesLeft[c] {
			if !left || (considered != nil && !considered[piece]) {
				continue
			}
			for _, mv := range b.bc.MovesAt(Piece(piece), p) {
				if scratch.IsSet(mv) {
					continue
				}
				scratch.Set(mv)
				if skip != nil && skip.IsSet(mv) {
					continue
				}
				if !b.IsForbiddenMove(c, mv) && !fn(mv) {
					return
				}
			}
		}
	}
}

// Score of the color: number of placed squares plus the bonuses
func (b *Board) Points(c Color) int {
	points := b.squares[c]
	if b.nuLeft[c] == 0 {
		points += BonusAllPieces
		if b.lastPiece[c] == Monomino {
			points += BonusMonomino
		}
	}
	return points
}

// Score of the player, sum of the points of its colors
func (b *Board) PlayerPoints(player int) int {
	points := 0
	for c := range b.nuColors {
		if b.variant.Player(Color(c)) == player {
			points += b.Points(Color(c))
		}
	}
	return points
}

// Game result for each color: average over the opposing players
// of 1 for a win, 0.5 for a tie and 0 for a loss
func (b *Board) Result() []float64 {
	result := make([]float64, b.nuColors)
	nuPlayers := b.variant.NuPlayers()
	for c := range b.nuColors {
		own := b.variant.Player(Color(c))
		ownPoints := b.PlayerPoints(own)
		sum := 0.0
		for op := range nuPlayers {
			if op == own {
				continue
			}
			switch opPoints := b.PlayerPoints(op); {
			case ownPoints > opPoints:
				sum += 1
			case ownPoints == opPoints:
				sum += 0.5
			}
		}
		result[c] = sum / float64(nuPlayers-1)
	}
	return result
}

// Whether no color has a legal move left
func (b *Board) IsGameOver() bool {
	for c := range b.nuColors {
		if b.HasMoves(Color(c)) {
			return false
		}
	}
	return true
}

// Make this board a copy of other, reusing the allocated memory
func (b *Board) CopyFrom(other *Board) {
	if b.bc != other.bc || b.nuColors != other.nuColors {
		b.bc = other.bc
		b.geo = other.geo
		b.occupied = make([]Color, other.geo.Range())
		for c := range MaxColors {
			b.forbidden[c] = make([]bool, other.geo.Range())
			b.isAttach[c] = make([]bool, other.geo.Range())
			b.piecesLeft[c] = make([]bool, other.bc.NuPieces())
		}
	}
	b.variant = other.variant
	b.nuColors = other.nuColors
	b.setup = other.setup.clone()
	b.history = append(b.history[:0], other.history...)
	b.toPlay = other.toPlay
	copy(b.occupied, other.occupied)
	for c := range MaxColors {
		copy(b.forbidden[c], other.forbidden[c])
		copy(b.isAttach[c], other.isAttach[c])
		b.attach[c] = append(b.attach[c][:0], other.attach[c]...)
		copy(b.piecesLeft[c], other.piecesLeft[c])
		b.starting[c] = other.starting[c]
	}
	b.nuLeft = other.nuLeft
	b.nuOnboard = other.nuOnboard
	b.squares = other.squares
	b.lastPiece = other.lastPiece
}

// Hash of the position: occupancy, pieces left and color to play
func (b *Board) Hash() uint64 {
	buf := make([]byte, 0, len(b.occupied)+b.nuColors*b.bc.NuPieces()+8)
	for _, c := range b.occupied {
		buf = append(buf, byte(c))
	}
	for c := range b.nuColors {
		for _, left := range b.piecesLeft[c] {
			if left {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(b.variant))
	buf = append(buf, byte(b.toPlay))
	return xxhash.Sum64(buf)
}

func (b *Board) String() string {
	var sb strings.Builder
	width, height := b.geo.Width(), b.geo.Height()
	for y := range height {
		fmt.Fprintf(&sb, "%2d ", height-y)
		for x := range width {
			p := b.geo.Point(x, y)
			switch c := b.occupied[p]; {
			case c != NoColor:
				sb.WriteString(c.String())
			case slices.ContainsFunc(b.starting[:b.nuColors], func(s []Point) bool {
				return slices.Contains(s, p)
			}):
				sb.WriteByte('+')
			default:
				sb.WriteByte('.')
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   ")
	for x := range width {
		sb.WriteByte(byte('a' + x))
		sb.WriteByte(' ')
	}
	sb.WriteByte('\n')
	return sb.String()
}
