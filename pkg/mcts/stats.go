package mcts

import (
	"math"
	"sync/atomic"
)

const (
	vvlVisitShift = 32
	vvlLossMask   = 1<<vvlVisitShift - 1
	// Added on backpropagation: one visit more, one virtual loss less
	vvlBackprop = 1<<vvlVisitShift - 1
)

// Atomically updated float64, stored as its bit pattern
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat) Add(v float64) {
	for {
		old := f.bits.Load()
		if f.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+v)) {
			return
		}
	}
}

// Visits/virtual loss/value statistics of a node, safe for concurrent use.
// Visits and virtual loss are packed into one word, so that both can be read
// (and backpropagation can move one playout from 'in flight' to 'visited') atomically
type NodeStats struct {
	// high 32 bits: visits, low 32 bits: playouts in flight through this node
	vvl atomic.Uint64
	// Sum of the values of the finished playouts, for the player that made the node's move
	sum atomicFloat

	// RAVE: number and value sum of playouts, in which the node's move was played later
	raveCount atomic.Uint32
	raveSum   atomicFloat
}

// Get both visits and virtual loss, read at the same instant
func (stats *NodeStats) GetVvl() (visits, virtualLoss uint32) {
	v := stats.vvl.Load()
	return uint32(v >> vvlVisitShift), uint32(v & vvlLossMask)
}

// Number of finished playouts through this node
func (stats *NodeStats) Visits() uint32 {
	return uint32(stats.vvl.Load() >> vvlVisitShift)
}

// Number of playouts currently going through this node
func (stats *NodeStats) VirtualLoss() uint32 {
	return uint32(stats.vvl.Load() & vvlLossMask)
}

func (stats *NodeStats) AddVirtualLoss() {
	stats.vvl.Add(1)
}

// Finish a playout, that applied a virtual loss to this node
func (stats *NodeStats) addVisit(value float64) {
	stats.sum.Add(value)
	stats.vvl.Add(vvlBackprop)
}

// Finish a playout, without a virtual loss (the root)
func (stats *NodeStats) addRootVisit() {
	stats.vvl.Add(1 << vvlVisitShift)
}

// Cumulated values of this node
func (stats *NodeStats) Sum() float64 {
	return stats.sum.Load()
}

// Mean value, or the given default, if there are no visits
func (stats *NodeStats) Mean(def float64) float64 {
	if n := stats.Visits(); n > 0 {
		return stats.sum.Load() / float64(n)
	}
	return def
}

func (stats *NodeStats) RaveCount() uint32 {
	return stats.raveCount.Load()
}

func (stats *NodeStats) RaveMean(def float64) float64 {
	if n := stats.raveCount.Load(); n > 0 {
		return stats.raveSum.Load() / float64(n)
	}
	return def
}

func (stats *NodeStats) addRave(value float64) {
	stats.raveSum.Add(value)
	stats.raveCount.Add(1)
}

// Copy the finished statistics, dropping the virtual loss
func (stats *NodeStats) copyFrom(other *NodeStats) {
	visits, _ := other.GetVvl()
	stats.vvl.Store(uint64(visits) << vvlVisitShift)
	stats.sum.Store(other.sum.Load())
	stats.raveCount.Store(other.raveCount.Load())
	stats.raveSum.Store(other.raveSum.Load())
}

func (stats *NodeStats) reset() {
	stats.vvl.Store(0)
	stats.sum.Store(0)
	stats.raveCount.Store(0)
	stats.raveSum.Store(0)
}

// Count and value sum, used for the root statistics of each player
type ValueStats struct {
	count atomic.Uint32
	sum   atomicFloat
}

func (vs *ValueStats) Add(value float64) {
	vs.sum.Add(value)
	vs.count.Add(1)
}

func (vs *ValueStats) Count() uint32 {
	return vs.count.Load()
}

func (vs *ValueStats) Mean() float64 {
	if n := vs.count.Load(); n > 0 {
		return vs.sum.Load() / float64(n)
	}
	return 0
}

func (vs *ValueStats) reset() {
	vs.count.Store(0)
	vs.sum.Store(0)
}
