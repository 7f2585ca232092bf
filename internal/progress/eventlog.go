package progress

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventLog is an append-only, chronologically ordered store of events for one run.
// Append never waits on readers beyond a short critical section; Snapshot returns
// a copy so later appends are invisible to it.
type EventLog struct {
	id     uuid.UUID
	now    func() time.Time
	mu     sync.RWMutex
	events []Event
}

// NewEventLog creates an empty log with a fresh run ID
func NewEventLog() *EventLog {
	return &EventLog{
		id:  uuid.New(),
		now: time.Now,
	}
}

// newEventLogWithClock is used by tests to control timestamps
func newEventLogWithClock(now func() time.Time) *EventLog {
	l := NewEventLog()
	l.now = now
	return l
}

// ID returns the run ID this log belongs to
func (l *EventLog) ID() uuid.UUID {
	return l.id
}

// Append adds an event to the end of the log and returns it.
// Timestamps are clamped so they never go backwards in append order.
func (l *EventLog) Append(component Component, action string, status Status, message string, meta map[string]any) Event {
	if meta == nil {
		meta = map[string]any{}
	} else {
		meta = maps.Clone(meta)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	if n := len(l.events); n > 0 && ts.Before(l.events[n-1].Timestamp) {
		ts = l.events[n-1].Timestamp
	}

	event := Event{
		Seq:       len(l.events) + 1,
		Timestamp: ts,
		Component: component,
		Action:    action,
		Status:    status,
		Message:   message,
		Meta:      meta,
	}
	l.events = append(l.events, event)
	return event
}

// RunSnapshot returns the run ID with a snapshot of the events
func (l *EventLog) RunSnapshot() (uuid.UUID, []Event) {
	return l.id, l.Snapshot()
}

// Snapshot returns the events appended as of the call
func (l *EventLog) Snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Since returns the events after the first n
func (l *EventLog) Since(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n >= len(l.events) {
		return nil
	}
	out := make([]Event, len(l.events)-n)
	copy(out, l.events[n:])
	return out
}

// Len returns the number of events appended so far
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
