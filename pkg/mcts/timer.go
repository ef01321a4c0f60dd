package mcts

import (
	"time"
)

// Source of the current time, replaced in tests
type TimeSource interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now() }

// Wall clock time source
var SystemTime TimeSource = systemTime{}

type _Timer struct {
	source   TimeSource
	start    time.Time
	duration time.Duration
}

func _NewTimer(source TimeSource) *_Timer {
	if source == nil {
		source = SystemTime
	}
	return &_Timer{source, source.Now(), -1}
}

func (t *_Timer) SetSource(source TimeSource) {
	if source != nil {
		t.source = source
	}
}

// Check if this timer has ended
func (t *_Timer) IsEnd() bool {
	return t.duration >= 0 && t.Elapsed() >= t.duration
}

func (t *_Timer) IsSet() bool {
	return t.duration >= 0
}

// Set the 'start' as now
func (t *_Timer) Reset() {
	t.start = t.source.Now()
}

// Get the start time
func (t *_Timer) Start() time.Time {
	return t.start
}

func (t *_Timer) Elapsed() time.Duration {
	return t.source.Now().Sub(t.start)
}

// Elapsed time in milliseconds, at least 1
func (t *_Timer) Deltatime() int {
	return max(int(t.Elapsed().Milliseconds()), 1)
}

// Negative duration disables the timer
func (t *_Timer) Movetime(movetime time.Duration) {
	if movetime < 0 {
		t.duration = -1
	} else {
		t.duration = movetime
	}
}
