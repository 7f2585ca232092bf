package progress

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Tracker holds the single "current" event log. Starting a run swaps in a
// fresh log so an observer that only knows the tracker reads one run at a time.
type Tracker struct {
	current atomic.Pointer[EventLog]
}

// Swap makes l the current log and returns the previous one (nil if none).
// Passing nil clears the current log.
func (t *Tracker) Swap(l *EventLog) *EventLog {
	return t.current.Swap(l)
}

// Current returns the current log, or nil when no run has been started
func (t *Tracker) Current() *EventLog {
	return t.current.Load()
}

// Snapshot returns the events of the current log, or nil when there is none
func (t *Tracker) Snapshot() []Event {
	if l := t.Current(); l != nil {
		return l.Snapshot()
	}
	return nil
}

// RunSnapshot returns the current log's run ID together with its events,
// both read from the same log. It returns uuid.Nil and no events when no
// run has been started.
func (t *Tracker) RunSnapshot() (uuid.UUID, []Event) {
	if l := t.Current(); l != nil {
		return l.RunSnapshot()
	}
	return uuid.Nil, nil
}

// Frozen is a fixed capture of one run's events. It lets an observer derive a
// view from exactly the events a caller already holds.
type Frozen struct {
	RunID  uuid.UUID
	Events []Event
}

// Snapshot returns the captured events
func (f Frozen) Snapshot() []Event { return f.Events }

// RunSnapshot returns the captured run ID and events
func (f Frozen) RunSnapshot() (uuid.UUID, []Event) { return f.RunID, f.Events }
