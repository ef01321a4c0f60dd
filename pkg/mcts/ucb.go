package mcts

import "math"

// Weight of the RAVE value in the selection score, decays with the node's own visits:
// beta = raveCount / (visits + raveCount + 4*b^2*visits*raveCount)
func RaveBeta(visits, raveCount, bias float64) float64 {
	if raveCount <= 0 {
		return 0
	}
	return raveCount / (visits + raveCount + 4*bias*bias*visits*raveCount)
}

// Selection score of a child and its RAVE mean (used to break ties).
// Playouts in flight count as visits with value 0
func (t *Tree[M]) score(stats *NodeStats, sqrtParent float64) (float64, float64) {
	visits, vl := stats.GetVvl()
	n := float64(visits) + VirtualLoss*float64(vl)

	raveCount := 0.0
	raveMean := FirstPlayUrgency
	if t.params.Rave {
		raveCount = float64(stats.RaveCount())
		raveMean = stats.RaveMean(FirstPlayUrgency)
	}

	value := FirstPlayUrgency
	if n > 0 || raveCount > 0 {
		mean := 0.0
		if n > 0 {
			mean = stats.Sum() / n
		}
		beta := RaveBeta(n, raveCount, t.params.RaveBias)
		value = (1-beta)*mean + beta*raveMean
	}
	return value + t.params.Exploration*sqrtParent/(1+n), raveMean
}

// Choose the child of an expanded node, with the highest UCT+RAVE score.
// Ties are broken by the higher RAVE mean, then by the earliest child
func (t *Tree[M]) SelectChild(parent NodeIdx) NodeIdx {
	node := t.Node(parent)
	children := t.Children(parent)
	if len(children) == 0 {
		return NilNode
	}

	visits, vl := node.Stats.GetVvl()
	sqrtParent := math.Sqrt(float64(visits) + VirtualLoss*float64(vl))

	index := 0
	bestScore, bestRave := math.Inf(-1), math.Inf(-1)
	for i := range children {
		score, rave := t.score(&children[i].Stats, sqrtParent)
		if score > bestScore || (score == bestScore && rave > bestRave) {
			index, bestScore, bestRave = i, score, rave
		}
	}
	return t.Child(parent, index)
}
