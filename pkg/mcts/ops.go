package mcts

// Game specific part of a simulation. Every search thread owns one instance,
// so implementations need no synchronization.
type GameOperations[M MoveLike] interface {
	// Start a new simulation from the root position
	StartSimulation()
	// Play a move of the tree part of the simulation
	PlayInTree(M)
	// Append the moves of the current position to dst, these will become the
	// children of the node. No moves means the position is terminal
	GenChildren(dst []M) []M
	// Play the rest of the game, until it ends
	Playout()
	// Result of the finished game, one value in [0, 1] for each player
	Evaluate() []float64
	// All moves played since StartSimulation, tree moves first
	Moves() []M
}

// Creates the operations of the search thread with given id
type OpsFactory[M MoveLike] func(threadId int) GameOperations[M]
