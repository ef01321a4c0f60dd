package board

// Index into the move table of a BoardConst
type Move int32

const (
	NullMove Move = -1
	PassMove Move = -2
)

func (m Move) IsPass() bool {
	return m == PassMove
}

// Whether the move places a piece
func (m Move) IsRegular() bool {
	return m >= 0
}

// A move together with the color that plays it
type ColorMove struct {
	Color Color
	Move  Move
}

func Pass(c Color) ColorMove {
	return ColorMove{Color: c, Move: PassMove}
}

func (cm ColorMove) IsPass() bool {
	return cm.Move.IsPass()
}

// Index of the value this move is scored with, values are kept per color
func (cm ColorMove) Player() int {
	return int(cm.Color)
}

// Dense index of the (color, move) pair, -1 for moves that don't place a piece
func (cm ColorMove) Index() int {
	if !cm.Move.IsRegular() {
		return -1
	}
	return int(cm.Move)*MaxColors + int(cm.Color)
}

// Bit set over moves, remembers which bits were set so that clearing
// is proportional to the number of marked moves
type MoveMarker struct {
	bits []uint64
	set  []Move
}

func NewMoveMarker(nuMoves int) *MoveMarker {
	return &MoveMarker{bits: make([]uint64, (nuMoves+63)/64)}
}

func (m *MoveMarker) Set(mv Move) {
	w, b := mv>>6, uint64(1)<<(mv&63)
	if m.bits[w]&b == 0 {
		m.bits[w] |= b
		m.set = append(m.set, mv)
	}
}

func (m *MoveMarker) IsSet(mv Move) bool {
	return m.bits[mv>>6]&(uint64(1)<<(mv&63)) != 0
}

func (m *MoveMarker) Len() int {
	return len(m.set)
}

func (m *MoveMarker) ClearAll() {
	for _, mv := range m.set {
		m.bits[mv>>6] &^= uint64(1) << (mv & 63)
	}
	m.set = m.set[:0]
}
