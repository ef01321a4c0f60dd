package mcts

// Rapid Action Value Estimation (RAVE)
// Reference: https://en.wikipedia.org/wiki/Monte_Carlo_tree_search#Improvements
// Moves of the same player are assumed to have a similar value, no matter when they
// are played, so every child whose move was played later in a simulation gets the value
// of that simulation.

// Set of move indices, one per search thread. Clearing costs only as much
// as the number of marked moves
type AmafMarker struct {
	bits []uint64
	set  []int
}

func NewAmafMarker(size int) *AmafMarker {
	return &AmafMarker{bits: make([]uint64, (size+63)/64)}
}

// Mark the move index, negative indices are ignored
func (m *AmafMarker) Mark(index int) {
	if index < 0 {
		return
	}
	w := index >> 6
	if w >= len(m.bits) {
		m.bits = append(m.bits, make([]uint64, w+1-len(m.bits))...)
	}
	if bit := uint64(1) << (index & 63); m.bits[w]&bit == 0 {
		m.bits[w] |= bit
		m.set = append(m.set, index)
	}
}

func (m *AmafMarker) IsMarked(index int) bool {
	if index < 0 || index>>6 >= len(m.bits) {
		return false
	}
	return m.bits[index>>6]&(uint64(1)<<(index&63)) != 0
}

func (m *AmafMarker) Clear() {
	for _, index := range m.set {
		m.bits[index>>6] &^= uint64(1) << (index & 63)
	}
	m.set = m.set[:0]
}

// Update the statistics after a simulation.
//
// path holds the nodes of the tree part of the simulation, path[0] being the root,
// moves all moves played in the simulation: moves[i] leads from path[i] to path[i+1],
// the moves after the last path node were played in the playout.
// values has the result of the simulation for each player.
//
// Every non-root node on the path must have a virtual loss applied by this simulation.
func (t *Tree[M]) Backpropagate(path []NodeIdx, moves []M, values []float64, marker *AmafMarker) {
	root := t.Node(path[0])
	root.Stats.addRootVisit()
	for player := range t.rootValues {
		t.rootValues[player].Add(values[player])
	}

	for i := len(path) - 1; i > 0; i-- {
		node := t.Node(path[i])
		node.Stats.addVisit(values[node.Move.Player()])
	}

	if !t.params.Rave {
		return
	}

	// Moves played later than the node currently updated
	marker.Clear()
	for _, mv := range moves[len(path)-1:] {
		marker.Mark(mv.Index())
	}
	for i := len(path) - 1; i >= 0; i-- {
		children := t.Children(path[i])
		for j := range children {
			child := &children[j]
			if marker.IsMarked(child.Move.Index()) {
				child.Stats.addRave(values[child.Move.Player()])
			}
		}
		if i > 0 {
			marker.Mark(moves[i-1].Index())
		}
	}
	marker.Clear()
}
