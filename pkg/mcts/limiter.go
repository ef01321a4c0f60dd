package mcts

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Set of the limits that ended a search
type StopReason int

const StopNone StopReason = 0

const (
	StopInterrupt StopReason = 1 << iota // explicit stop or context cancellation
	StopMovetime                         // time limit reached
	StopMemory                           // node limit reached
	StopDepth                            // depth limit reached
	StopCycles                           // simulation limit reached
)

var stopReasonNames = []struct {
	flag StopReason
	name string
}{
	{StopInterrupt, "Interrupt"},
	{StopMovetime, "Movetime"},
	{StopMemory, "Memory"},
	{StopDepth, "Depth"},
	{StopCycles, "Cycles"},
}

func (sr StopReason) String() string {
	if sr == StopNone {
		return "None"
	}
	names := make([]string, 0, len(stopReasonNames))
	for _, r := range stopReasonNames {
		if sr&r.flag != 0 {
			names = append(names, r.name)
		}
	}
	return strings.Join(names, "|")
}

type LimiterLike interface {
	SetContext(ctx context.Context)
	SetLimits(*Limits)
	Limits() *Limits
	// Clock of the movetime limit
	SetTimeSource(TimeSource)
	// Milliseconds since the last Reset, at least 1
	Elapsed() uint32
	SetStop(bool)
	Stop() bool
	// Called on search setup
	Reset()
	// Whether the tree can grow
	Expand() bool
	// Called when the tree ran out of space
	DisableExpand()
	// Whether the search should continue
	Ok(size, depth, cycles uint32) bool
	// Valid after EvaluateStopReason
	StopReason() StopReason
	// Store the limits reached in the final state of the search
	EvaluateStopReason(size, depth, cycles uint32)
}

type Limiter struct {
	limits   *Limits
	Timer    *_Timer
	nodeSize uint32
	maxSize  uint32
	// limits other than the memory one, that can end the search
	bounded bool
	expand  atomic.Bool
	stop    atomic.Bool
	ctx     context.Context

	mu     sync.Mutex
	reason StopReason
}

func NewLimiter(nodesize uint32) *Limiter {
	limiter := &Limiter{
		limits:   DefaultLimits(),
		Timer:    _NewTimer(SystemTime),
		nodeSize: max(nodesize, 1),
		ctx:      context.Background(),
	}
	limiter.expand.Store(true)
	return limiter
}

func (l *Limiter) Reset() {
	l.Timer.Movetime(l.limits.Movetime)
	l.Timer.Reset()
	l.stop.Store(false)
	l.expand.Store(true)
	l.mu.Lock()
	l.reason = StopNone
	l.mu.Unlock()

	l.maxSize = math.MaxUint32
	if !l.limits.InfiniteSize() {
		l.maxSize = uint32(min(l.limits.ByteSize/int64(l.nodeSize), math.MaxUint32))
	}
	l.bounded = l.Timer.IsSet() || l.limits.Cycles != DefaultCyclesLimit
}

// Limits reached in the given state. A full tree ends the search only
// when there is no time or simulation limit, otherwise the tree stops
// growing and the search goes on.
func (l *Limiter) reached(size, depth, cycles uint32) StopReason {
	var reason StopReason
	if l.Stop() {
		reason |= StopInterrupt
	}
	if l.limits.Infinite {
		return reason
	}

	if cycles >= l.limits.MinCycles && l.Timer.IsEnd() {
		reason |= StopMovetime
	}
	if size >= l.maxSize {
		if l.bounded {
			l.expand.Store(false)
		} else {
			reason |= StopMemory
		}
	}
	if int(depth) >= l.limits.Depth {
		reason |= StopDepth
	}
	if cycles >= l.limits.Cycles {
		reason |= StopCycles
	}
	return reason
}

func (l *Limiter) Ok(size, depth, cycles uint32) bool {
	return l.reached(size, depth, cycles) == StopNone
}

func (l *Limiter) EvaluateStopReason(size, depth, cycles uint32) {
	reason := l.reached(size, depth, cycles)
	l.mu.Lock()
	l.reason = reason
	l.mu.Unlock()
}

func (l *Limiter) StopReason() StopReason {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason
}

func (l *Limiter) SetContext(ctx context.Context) {
	l.ctx = ctx
}

func (l *Limiter) SetTimeSource(source TimeSource) {
	l.Timer.SetSource(source)
}

func (l *Limiter) SetStop(v bool) {
	l.stop.Store(v)
}

func (l *Limiter) Stop() bool {
	if l.ctx.Err() != nil {
		l.stop.Store(true)
	}
	return l.stop.Load()
}

func (l *Limiter) SetLimits(limits *Limits) {
	l.limits = limits
}

func (l *Limiter) Limits() *Limits {
	return l.limits
}

func (l *Limiter) Elapsed() uint32 {
	return uint32(l.Timer.Deltatime())
}

func (l *Limiter) ElapsedTime() time.Duration {
	return l.Timer.Elapsed()
}

func (l *Limiter) Expand() bool {
	return l.expand.Load()
}

func (l *Limiter) DisableExpand() {
	l.expand.Store(false)
}
