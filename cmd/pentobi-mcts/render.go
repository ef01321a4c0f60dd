package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/muesli/termenv"
)

// Board colors of the four colors, in the usual blue, yellow, red, green order
var colorCodes = [board.MaxColors]string{"12", "11", "9", "10"}

type Renderer struct {
	output *termenv.Output
}

func NewRenderer(w io.Writer, noColor bool) *Renderer {
	opts := []termenv.OutputOption{}
	if noColor {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &Renderer{output: termenv.NewOutput(w, opts...)}
}

func (r *Renderer) style(c board.Color, s string) termenv.Style {
	return r.output.String(s).Foreground(r.output.Color(colorCodes[c]))
}

// Print the board, the last move highlighted, followed by the points
// and pieces left of each color
func (r *Renderer) Board(bd *board.Board) {
	geo := bd.Geometry()
	var last []board.Point
	if history := bd.History(); len(history) > 0 {
		if cm := history[len(history)-1]; cm.Move.IsRegular() {
			last = bd.Const().MoveInfo(cm.Move).Points
		}
	}

	var sb strings.Builder
	width, height := geo.Width(), geo.Height()
	for y := range height {
		fmt.Fprintf(&sb, "%2d ", height-y)
		for x := range width {
			p := geo.Point(x, y)
			switch c := bd.PointState(p); {
			case c == board.NoColor:
				sb.WriteString(". ")
			case slices.Contains(last, p):
				sb.WriteString(r.style(c, "#").Bold().String() + " ")
			default:
				sb.WriteString(r.style(c, "#").String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   ")
	for x := range width {
		sb.WriteByte(byte('a' + x))
		sb.WriteByte(' ')
	}
	sb.WriteByte('\n')

	catalog := bd.Const().Catalog()
	for c := range bd.NuColors() {
		color := board.Color(c)
		names := make([]string, 0, catalog.NuPieces())
		for _, piece := range bd.PiecesLeft(color) {
			names = append(names, catalog.Info(piece).Name)
		}
		marker := " "
		if color == bd.ToPlay() {
			marker = ">"
		}
		fmt.Fprintf(&sb, "%s%s %3d  %s\n", marker, r.style(color, color.String()),
			bd.Points(color), strings.Join(names, " "))
	}
	fmt.Fprint(r.output, sb.String())
}
