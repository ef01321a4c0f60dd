package bench

import (
	"encoding/json"
	"io"
	"sync"
)

// Distributes the arena events to several listeners, one event at a time
type ArenaListener struct {
	mu        sync.Mutex
	listeners []ListenerLike
}

func NewArenaListener(listeners ...ListenerLike) *ArenaListener {
	return &ArenaListener{listeners: listeners}
}

func (al *ArenaListener) Add(listener ListenerLike) {
	al.mu.Lock()
	al.listeners = append(al.listeners, listener)
	al.mu.Unlock()
}

func (al *ArenaListener) each(f func(ListenerLike)) {
	al.mu.Lock()
	defer al.mu.Unlock()
	for _, l := range al.listeners {
		f(l)
	}
}

func (al *ArenaListener) OnGameStart(workerID int) {
	al.each(func(l ListenerLike) { l.OnGameStart(workerID) })
}

func (al *ArenaListener) OnMoveMade(info VersusWorkerInfo) {
	al.each(func(l ListenerLike) { l.OnMoveMade(info) })
}

func (al *ArenaListener) OnFinishedGame(info VersusWorkerInfo) {
	al.each(func(l ListenerLike) { l.OnFinishedGame(info) })
}

func (al *ArenaListener) OnFinishedWork(info VersusWorkerInfo) {
	al.each(func(l ListenerLike) { l.OnFinishedWork(info) })
}

func (al *ArenaListener) Summary(info VersusSummaryInfo) {
	al.each(func(l ListenerLike) { l.Summary(info) })
}

// Writes the summary as a JSON document
type JSONSummaryListener struct {
	DefaultListener
	w   io.Writer
	err error
}

func NewJSONSummaryListener(w io.Writer) *JSONSummaryListener {
	return &JSONSummaryListener{w: w}
}

func (j *JSONSummaryListener) Summary(info VersusSummaryInfo) {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	j.err = enc.Encode(info)
}

// Error of writing the summary
func (j *JSONSummaryListener) Err() error {
	return j.err
}
