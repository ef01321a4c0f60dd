package mcts

import "time"

// Main thread id, which has some privileges, like calling the listener during the search
const mainThreadId = 0

// Weight of a single virtual loss, a node with k playouts in flight is treated as if
// it had VirtualLoss*k more visits, all of them with value 0
const VirtualLoss = 1

// Value used as the mean of a child without any visits and RAVE statistics
const FirstPlayUrgency = 0.5

// Number of visits of a leaf node, before it gets expanded
const DefaultExpandThreshold = 3

// Default exploration constant of the bias term
const DefaultExploration = 0.11

// Default RAVE bias, see RaveBeta
const DefaultRaveBias = 0.05

var SeedGeneratorFn SeedGeneratorFnType = func() int64 {
	return time.Now().UnixNano()
}

// Set custom seed generator function for random number generators in MCTS,
// by default uses current time in nanoseconds
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}

const (
	// When choosing the best child, choose the one with most visits,
	// this is the go-to method for MCTS, ties are broken by the mean value
	BestChildMostVisits BestChildPolicy = iota

	// Experimental: choose the child with the best mean value
	BestChildWinRate
)

// Selection and backpropagation parameters of the tree
type TreeParams struct {
	// Exploration constant c of the bias term c*sqrt(N)/(1+n)
	Exploration float64
	// Whether to use RAVE values in the selection and to update them in backpropagation
	Rave bool
	// b in the RAVE weight formula
	RaveBias float64
	// Visits of a leaf, needed to expand it
	ExpandThreshold int
}

func DefaultTreeParams() TreeParams {
	return TreeParams{
		Exploration:     DefaultExploration,
		Rave:            true,
		RaveBias:        DefaultRaveBias,
		ExpandThreshold: DefaultExpandThreshold,
	}
}
