package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidMove = errors.New("invalid move")

// Point in the notation column letter + row number, rows are counted
// from the bottom of the board, e.g. "a1" is the bottom left corner
func FormatPoint(geo Geometry, p Point) string {
	x, y := geo.Coords(p)
	return fmt.Sprintf("%c%d", 'a'+x, geo.Height()-y)
}

func ParsePoint(geo Geometry, s string) (Point, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 || s[0] < 'a' || s[0] > 'z' {
		return NullPoint, fmt.Errorf("%w: point %q", ErrInvalidMove, s)
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil {
		return NullPoint, fmt.Errorf("%w: point %q", ErrInvalidMove, s)
	}
	p := geo.Point(int(s[0]-'a'), geo.Height()-row)
	if p.IsNull() {
		return NullPoint, fmt.Errorf("%w: point %q off board", ErrInvalidMove, s)
	}
	return p, nil
}

// Comma separated list of the points of the move, or "pass"
func (bc *BoardConst) FormatMove(mv Move) string {
	switch {
	case mv.IsPass():
		return "pass"
	case !mv.IsRegular():
		return "null"
	}
	info := bc.MoveInfo(mv)
	parts := make([]string, len(info.Points))
	for i, p := range info.Points {
		parts[i] = FormatPoint(bc.geo, p)
	}
	return strings.Join(parts, ",")
}

func (bc *BoardConst) ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "pass" {
		return PassMove, nil
	}
	fields := strings.Split(s, ",")
	points := make([]Point, 0, len(fields))
	for _, f := range fields {
		p, err := ParsePoint(bc.geo, f)
		if err != nil {
			return NullMove, err
		}
		points = append(points, p)
	}
	mv, ok := bc.FindMove(points)
	if !ok {
		return NullMove, fmt.Errorf("%w: no piece covers %q", ErrInvalidMove, s)
	}
	return mv, nil
}

func (b *Board) MoveString(mv Move) string {
	return b.bc.FormatMove(mv)
}

// Parse a move in the notation "<color> <points>" (e.g. "1 e5,f5"),
// or only "<points>" for the color to play
func (b *Board) ParseColorMove(s string) (ColorMove, error) {
	fields := strings.Fields(s)
	c := b.toPlay
	switch len(fields) {
	case 1:
	case 2:
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 1 || n > b.nuColors {
			return ColorMove{}, fmt.Errorf("%w: color %q", ErrInvalidMove, fields[0])
		}
		c = Color(n - 1)
		fields = fields[1:]
	default:
		return ColorMove{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	mv, err := b.bc.ParseMove(fields[0])
	if err != nil {
		return ColorMove{}, err
	}
	return ColorMove{Color: c, Move: mv}, nil
}
