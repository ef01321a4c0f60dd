package board

import (
	"fmt"
	"strings"
)

// Maximum number of colors of all supported variants
const MaxColors = 4

type Color uint8

const NoColor Color = MaxColors

func (c Color) String() string {
	if c >= MaxColors {
		return "-"
	}
	return fmt.Sprintf("%d", int(c)+1)
}

// Next color to play, in a game with nuColors colors
func (c Color) Next(nuColors int) Color {
	return Color((int(c) + 1) % nuColors)
}

// Game variant, selects the geometry, number of colors, players and starting points
type Variant int

const (
	// 14x14 board, 2 colors, 2 players
	Duo Variant = iota
	// 20x20 board, 4 colors, 4 players
	Classic
	// 20x20 board, 4 colors, 2 players (first player plays colors 1 and 3)
	Classic2
)

var variantNames = map[Variant]string{
	Duo:      "duo",
	Classic:  "classic",
	Classic2: "classic_2",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

func ParseVariant(s string) (Variant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range variantNames {
		if name == s || strings.ReplaceAll(name, "_", "") == s {
			return v, nil
		}
	}
	return Duo, fmt.Errorf("unknown variant %q", s)
}

func (v Variant) NuColors() int {
	if v == Duo {
		return 2
	}
	return 4
}

func (v Variant) NuPlayers() int {
	if v == Classic {
		return 4
	}
	return 2
}

// Player owning the given color
func (v Variant) Player(c Color) int {
	if v == Classic2 {
		return int(c) % 2
	}
	return int(c)
}

func (v Variant) Size() (width, height int) {
	if v == Duo {
		return 14, 14
	}
	return 20, 20
}

// Starting point coordinates of each color, the first piece of
// a color must cover its starting point
func (v Variant) startingCoords() [][2]int {
	if v == Duo {
		return [][2]int{{4, 4}, {9, 9}}
	}
	return [][2]int{{0, 0}, {19, 0}, {19, 19}, {0, 19}}
}
