package mcts

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

type Limits struct {
	Depth int
	// Maximum number of simulations
	Cycles uint32
	// Simulations that have to be run before the time limit is checked
	MinCycles uint32
	Movetime  time.Duration
	Infinite  bool
	NThreads  int
	ByteSize  int64
}

func (l Limits) String() string {
	builder := strings.Builder{}
	_ = json.NewEncoder(&builder).Encode(l)
	return strings.TrimSpace(builder.String())
}

const (
	DefaultDepthLimit    int           = math.MaxInt
	DefaultMovetimeLimit time.Duration = -1
	DefaultByteSizeLimit int64         = -1
	DefaultCyclesLimit   uint32        = math.MaxUint32
)

func DefaultLimits() *Limits {
	return &Limits{
		Depth:    DefaultDepthLimit,
		Cycles:   DefaultCyclesLimit,
		Movetime: DefaultMovetimeLimit,
		Infinite: true,
		NThreads: 1,
		ByteSize: DefaultByteSizeLimit,
	}
}

// Set the maximum depth of the search
func (l *Limits) SetDepth(depth int) *Limits {
	l.Depth = depth
	l.Infinite = false
	return l
}

// Set the number of simulations in monte-carlo tree search
func (l *Limits) SetCycles(cycles uint32) *Limits {
	l.Cycles = cycles
	l.Infinite = false
	return l
}

// Set the number of simulations, that must be run even if the time is up
func (l *Limits) SetMinCycles(cycles uint32) *Limits {
	l.MinCycles = cycles
	return l
}

// Set the maximum time for engine to think
func (l *Limits) SetMovetime(movetime time.Duration) *Limits {
	l.Movetime = movetime
	l.Infinite = false
	return l
}

func (l *Limits) SetInfinite(infinite bool) *Limits {
	l.Infinite = infinite
	return l
}

func (l *Limits) SetThreads(threads int) *Limits {
	l.NThreads = max(threads, 1)
	return l
}

func (l *Limits) SetMbSize(mbsize int) *Limits {
	return l.SetByteSize(int64(mbsize) * (1 << 20))
}

func (l *Limits) SetByteSize(bytesize int64) *Limits {
	l.ByteSize = bytesize
	l.Infinite = false
	return l
}

func (l *Limits) InfiniteSize() bool {
	return l.ByteSize == DefaultByteSizeLimit
}
